package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"igharvest/pkg/config"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/page"
)

// TagResolver extracts the accounts tagged in a content item. Image
// posts expose tags as structural overlay boxes in the DOM; videos and
// reels only reveal them through the tag-button popup. When structural
// extraction misses, a static HTML snapshot and finally the image alt
// text are consulted.
type TagResolver struct {
	page   page.Page
	cfg    *config.ExtractionConfig
	logger logger.Logger
	sleep  func(time.Duration)
}

// NewTagResolver builds a resolver over an open content-item page.
func NewTagResolver(p page.Page, cfg *config.Config, log logger.Logger) *TagResolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &TagResolver{
		page:   p,
		cfg:    &cfg.Extraction,
		logger: log,
		sleep:  time.Sleep,
	}
}

// Resolve returns the tagged accounts in discovery order, or the
// explicit no-tags sentinel when every strategy comes up empty. Tag
// extraction never fails an item: a broken strategy logs and falls
// through to the next one.
func (r *TagResolver) Resolve(kind models.ContentKind) []string {
	if r.isVideo(kind) {
		if tags := r.fromPopup(); len(tags) > 0 {
			return tags
		}
	} else {
		if tags := r.fromOverlayBoxes(); len(tags) > 0 {
			return tags
		}
		// Some image layouts still gate tags behind the popup.
		if tags := r.fromPopup(); len(tags) > 0 {
			return tags
		}
	}

	if tags := r.fromSnapshot(); len(tags) > 0 {
		return tags
	}
	if tags := r.fromAltText(); len(tags) > 0 {
		return tags
	}
	return models.NoTags()
}

// isVideo decides the extraction path. A reel URL is authoritative;
// otherwise the presence of a video element decides.
func (r *TagResolver) isVideo(kind models.ContentKind) bool {
	if kind == models.KindReel {
		return true
	}
	videos, err := r.page.Query(selVideoElement)
	return err == nil && len(videos) > 0
}

// fromPopup opens the tag popup and reads the account links inside it.
// Every query after the click is scoped to the dialog element: the page
// behind the popup is full of unrelated account links (the post author,
// commenters, suggestions) that must not leak into the result.
func (r *TagResolver) fromPopup() []string {
	button := r.findTagButton()
	if button == nil {
		return nil
	}
	if err := button.Click(); err != nil {
		r.logger.WithError(err).Debug("tag button click failed")
		return nil
	}
	defer r.closePopup()

	r.sleep(r.cfg.PopupAnimationDelay)

	dialogs, err := r.page.Query(selTagPopup)
	if err != nil || len(dialogs) == 0 {
		return nil
	}
	r.sleep(r.cfg.PopupContentDelay)

	anchors, err := dialogs[0].Query(selTagPopupAnchor)
	if err != nil {
		return nil
	}
	return handlesFromAnchors(anchors)
}

// findTagButton locates the clickable ancestor of the Tags icon.
func (r *TagResolver) findTagButton() page.Element {
	svgs, err := r.page.Query(selTagButton)
	if err != nil || len(svgs) == 0 {
		return nil
	}
	buttons, err := r.page.QueryXPath(xpTagButton)
	if err != nil || len(buttons) == 0 {
		// The icon itself still receives the click in layouts where
		// no button ancestor exists.
		return svgs[0]
	}
	return buttons[0]
}

func (r *TagResolver) closePopup() {
	buttons, err := r.page.QueryXPath(xpCloseButton)
	if err == nil && len(buttons) > 0 {
		if err := buttons[0].Click(); err == nil {
			return
		}
	}
	if err := r.page.PressEscape(); err != nil {
		r.logger.WithError(err).Debug("escape dismiss failed")
	}
}

// fromOverlayBoxes reads the tag overlay boxes rendered on image posts.
func (r *TagResolver) fromOverlayBoxes() []string {
	boxes, err := r.page.Query(selImageTagBox)
	if err != nil {
		return nil
	}
	var anchors []page.Element
	for _, box := range boxes {
		found, err := box.Query(selTagPopupAnchor)
		if err != nil {
			continue
		}
		anchors = append(anchors, found...)
	}
	if len(anchors) == 0 {
		found, err := r.page.QueryXPath(xpImageTagAnchor)
		if err != nil {
			return nil
		}
		anchors = found
	}
	return handlesFromAnchors(anchors)
}

// fromSnapshot parses a static HTML snapshot of the page. Structural
// queries can miss overlay boxes that only exist in serialized markup
// after a hover state.
func (r *TagResolver) fromSnapshot() []string {
	html, err := r.page.HTML()
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		r.logger.WithError(err).Debug("snapshot parse failed")
		return nil
	}

	var handles []string
	seen := make(map[string]bool)
	doc.Find(selImageTagBox + " a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		if handle, valid := models.ParseHandle(href); valid && !seen[handle] {
			seen[handle] = true
			handles = append(handles, handle)
		}
	})
	return handles
}

// fromAltText mines @mentions out of the post image alt attributes.
func (r *TagResolver) fromAltText() []string {
	images, err := r.page.Query(selPostImage)
	if err != nil {
		return nil
	}
	var handles []string
	seen := make(map[string]bool)
	for _, img := range images {
		alt, ok, err := img.Attribute("alt")
		if err != nil || !ok {
			continue
		}
		for _, match := range altMentionPattern.FindAllStringSubmatch(alt, -1) {
			handle := match[1]
			if !seen[handle] {
				seen[handle] = true
				handles = append(handles, handle)
			}
		}
	}
	return handles
}

// handlesFromAnchors converts profile anchors to unique handles,
// preserving discovery order.
func handlesFromAnchors(anchors []page.Element) []string {
	var handles []string
	seen := make(map[string]bool)
	for _, anchor := range anchors {
		href, ok, err := anchor.Attribute("href")
		if err != nil || !ok {
			continue
		}
		handle, valid := models.ParseHandle(href)
		if !valid || seen[handle] {
			continue
		}
		seen[handle] = true
		handles = append(handles, handle)
	}
	return handles
}
