package collector

// Selector strings for the profile grid and the follower popup. The
// target markup is unversioned and mutates over time; keeping the
// strings in one place makes them replaceable without touching the
// collection control flow.
const (
	// Grid rows on a profile or reels page; each holds a few anchors.
	selGridContainer = "div._ac7v"
	// Any content-item anchor, inside or outside a grid row.
	selContentAnchor = `a[href*="/p/"], a[href*="/reel/"]`

	// The follower/following popup dialog.
	selDialog = `div[role="dialog"]`
	// Account rows inside the popup.
	selDialogUserSpan = "span.xjp7ctv"
	selDialogAnchor   = "a[href]"

	// Links that open the popup from a profile page.
	selFollowersLink = `a[href*="/followers/"]`
	selFollowingLink = `a[href*="/following/"]`

	// Scrolls the popup body to its end; the dialog scrolls internally,
	// not with the main viewport.
	scrollDialogScript = `(() => {
		const dialog = document.querySelector('div[role="dialog"]');
		if (!dialog) { return false; }
		const panes = dialog.querySelectorAll('div');
		for (const pane of panes) {
			if (pane.scrollHeight > pane.clientHeight) {
				pane.scrollTop = pane.scrollHeight;
				return true;
			}
		}
		dialog.scrollTop = dialog.scrollHeight;
		return true;
	})()`
)
