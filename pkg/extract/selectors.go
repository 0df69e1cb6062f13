// Package extract resolves the facts of a single content item: tagged
// accounts, likes, and the post timestamp. Every fact is resolved by a
// cascade of strategies ordered most-specific first, because the markup
// varies across post layouts and drifts between UI revisions.
package extract

import "regexp"

const (
	// Likes strategies, tried in order.
	selLikesSectionSpan = `section span[role="button"]`
	selLikesClassSpan   = `span.x1ypdohk.x1s688f`
	selLikedByAnchor    = `a[href*="/liked_by/"]`
	selLikedByInner     = `span.html-span`
	xpLikesText         = `//span[contains(text(), " likes")]`

	// Timestamp sources.
	selReelTime = `div.x78zum5 time`
	selAnyTime  = `time`

	// Tagged-accounts markup.
	selVideoElement   = `video`
	selTagButton      = `svg[aria-label="Tags"]`
	selTagPopup       = `div[role="dialog"]`
	selTagPopupAnchor = `a[href]`
	selImageTagBox    = `div._aa1y`
	selPostImage      = `article img[alt]`
	xpTagButton       = `//*[name()="svg" and @aria-label="Tags"]/ancestor::button[1]`
	xpCloseButton     = `//*[name()="svg" and @aria-label="Close"]/ancestor::*[@role="button" or self::button][1]`
	xpImageTagAnchor  = `//div[contains(@class, "_aa1y")]//a[@href]`
)

// altMentionPattern pulls @mentions out of image alt text, the last
// resort when no tag markup survives in the DOM.
var altMentionPattern = regexp.MustCompile(`@([A-Za-z0-9_.]+)`)
