package page

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"igharvest/pkg/config"
	"igharvest/pkg/errors"
	"igharvest/pkg/logger"
	"igharvest/pkg/retry"
)

// Browser owns one Chrome process. Every tab created from it is
// single-tenant: it must not be shared across concurrent navigations, so
// parallel extraction creates one Browser per worker.
type Browser struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
	cfg         *config.Config
	logger      logger.Logger
}

// NewBrowser launches a Chrome process configured for scraping.
func NewBrowser(cfg *config.Config, log logger.Logger) (*Browser, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
		chromedp.WindowSize(cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight),
		chromedp.UserAgent(cfg.Instagram.UserAgent),
	)
	if cfg.Browser.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Browser.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// Force Chrome startup so failures surface here, not mid-run
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		cancelAlloc()
		return nil, errors.New(errors.ErrorTypeBrowser,
			fmt.Sprintf("failed to start chrome: %v", err))
	}

	log.DebugWithFields("browser started", map[string]interface{}{
		"headless": cfg.Browser.Headless,
	})

	return &Browser{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancel:      cancel,
		cfg:         cfg,
		logger:      log,
	}, nil
}

// NewPage opens a tab seeded with the authenticated session snapshot.
func (b *Browser) NewPage(sess *Session) (Page, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)

	if err := chromedp.Run(tabCtx, applySession(sess)); err != nil {
		cancelTab()
		return nil, errors.New(errors.ErrorTypeBrowser,
			fmt.Sprintf("failed to seed session into tab: %v", err))
	}

	page := &chromePage{
		ctx:       tabCtx,
		cancelTab: cancelTab,
		cfg:       b.cfg,
		logger:    b.logger,
	}
	if sess != nil {
		page.pendingStorage = sess.LocalStorage
	}
	return page, nil
}

// Close shuts down the browser completely.
func (b *Browser) Close() {
	b.cancel()
	b.cancelAlloc()
	b.logger.Debug("browser stopped")
}

// applySession installs cookies and user agent into a fresh tab.
func applySession(sess *Session) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if sess == nil {
			return nil
		}
		if sess.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(sess.UserAgent).Do(ctx); err != nil {
				return err
			}
		}
		for _, c := range sess.Cookies {
			setCookie := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithHTTPOnly(c.HTTPOnly).
				WithSecure(c.Secure)
			if c.Expires > 0 {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
				setCookie = setCookie.WithExpires(&expires)
			}
			if err := setCookie.Do(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// SnapshotSession reads the live cookie jar back out of a page so it can
// be re-persisted at a checkpoint.
func SnapshotSession(p Page, userAgent string) (*Session, error) {
	cp, ok := p.(*chromePage)
	if !ok {
		return nil, errors.New(errors.ErrorTypeSession, "page does not expose a cookie jar")
	}

	var cookies []*network.Cookie
	err := chromedp.Run(cp.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	sess := &Session{UserAgent: userAgent}
	if err := cp.Evaluate("Object.assign({}, localStorage)", &sess.LocalStorage); err != nil {
		cp.logger.Debug("failed to snapshot localStorage, keeping cookies only")
	}
	for _, c := range cookies {
		sess.Cookies = append(sess.Cookies, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return sess, nil
}

// loginSignals are content markers of the platform's login surface.
var loginSignals = []string{"loginForm", "Log in to Instagram", "accounts/login"}

// chromePage implements Page on a chromedp tab context.
type chromePage struct {
	ctx       context.Context
	cancelTab context.CancelFunc
	cfg       *config.Config
	logger    logger.Logger

	// localStorage cannot be seeded into a blank tab the way cookies
	// can; it is applied once an origin is loaded.
	pendingStorage map[string]string
}

// Close releases the tab.
func (p *chromePage) Close() {
	p.cancelTab()
}

func (p *chromePage) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Navigate loads a URL with bounded retries and checks for the login
// surface afterwards. An expired session escalates instead of letting
// every later extraction silently come back empty.
func (p *chromePage) Navigate(url string) error {
	attempt := 0
	err := retry.Do(func() error {
		attempt++
		start := time.Now()
		err := p.run(p.cfg.Browser.NavTimeout,
			chromedp.Navigate(url),
			chromedp.Sleep(p.cfg.Browser.PageLoadDelay),
		)
		logger.LogNavigation(url, attempt, err == nil, time.Since(start))
		if err != nil {
			return errors.NewAt(errors.ErrorTypeNavigation, url, err.Error())
		}
		if p.loginRequired() {
			return errors.NewAt(errors.ErrorTypeAuthExpired, url,
				"login page detected, session expired")
		}
		return nil
	}, &retry.Config{
		MaxAttempts: p.cfg.Browser.NavRetries,
		Backoff:     &retry.ConstantBackoff{Delay: p.cfg.Browser.NavRetryDelay},
		RetryIf:     retry.DefaultRetryIf,
		Context:     p.ctx,
		Logger:      p.logger,
	})
	if err != nil {
		var typed *errors.Error
		if stderrors.As(err, &typed) {
			return typed
		}
		return errors.NewAt(errors.ErrorTypeNavigation, url, err.Error())
	}

	p.applyPendingStorage()
	return nil
}

// applyPendingStorage writes seeded localStorage entries into the first
// loaded origin, then forgets them.
func (p *chromePage) applyPendingStorage() {
	if len(p.pendingStorage) == 0 {
		return
	}
	for key, value := range p.pendingStorage {
		script := fmt.Sprintf("localStorage.setItem(%q, %q)", key, value)
		if err := p.Evaluate(script, nil); err != nil {
			p.logger.WithField("key", key).Debug("failed to seed localStorage entry")
			continue
		}
	}
	p.pendingStorage = nil
}

func (p *chromePage) loginRequired() bool {
	loc, err := p.Location()
	if err == nil && strings.Contains(loc, "/accounts/login") {
		return true
	}
	html, err := p.HTML()
	if err != nil {
		return false
	}
	for _, signal := range loginSignals {
		if strings.Contains(html, signal) {
			return true
		}
	}
	return false
}

func (p *chromePage) Query(selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := p.run(10*time.Second,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return p.wrapNodes(nodes), nil
}

func (p *chromePage) QueryXPath(expr string) ([]Element, error) {
	var nodes []*cdp.Node
	err := p.run(10*time.Second,
		chromedp.Nodes(expr, &nodes, chromedp.BySearch, chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("xpath query %q: %w", expr, err)
	}
	return p.wrapNodes(nodes), nil
}

func (p *chromePage) wrapNodes(nodes []*cdp.Node) []Element {
	elems := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elems = append(elems, &chromeElement{page: p, node: n})
	}
	return elems
}

func (p *chromePage) WaitVisible(selector string, timeout time.Duration) error {
	return p.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (p *chromePage) ScrollBy(pixels int) error {
	return p.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", pixels), nil)
}

func (p *chromePage) ScrollToBottom() error {
	return p.Evaluate("window.scrollTo(0, document.body.scrollHeight)", nil)
}

func (p *chromePage) Evaluate(script string, out interface{}) error {
	return p.run(10*time.Second, chromedp.Evaluate(script, out))
}

func (p *chromePage) PressEscape() error {
	return p.run(5*time.Second, chromedp.KeyEvent(kb.Escape))
}

func (p *chromePage) HTML() (string, error) {
	var html string
	err := p.run(10*time.Second, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", fmt.Errorf("html snapshot: %w", err)
	}
	return html, nil
}

func (p *chromePage) Location() (string, error) {
	var loc string
	if err := p.run(5*time.Second, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// chromeElement implements Element on a cdp node handle.
type chromeElement struct {
	page *chromePage
	node *cdp.Node
}

func (e *chromeElement) Attribute(name string) (string, bool, error) {
	// The node snapshot usually carries attributes already; fall back to
	// a live lookup when it does not.
	if val, ok := lookupNodeAttribute(e.node, name); ok {
		return val, true, nil
	}

	var value string
	var ok bool
	err := e.page.run(5*time.Second,
		chromedp.AttributeValue(e.node.FullXPath(), name, &value, &ok, chromedp.BySearch))
	if err != nil {
		return "", false, err
	}
	return value, ok, nil
}

func lookupNodeAttribute(n *cdp.Node, name string) (string, bool) {
	n.RLock()
	defer n.RUnlock()
	for i := 0; i+1 < len(n.Attributes); i += 2 {
		if n.Attributes[i] == name {
			return n.Attributes[i+1], true
		}
	}
	return "", false
}

func (e *chromeElement) Text() (string, error) {
	var text string
	err := e.page.run(5*time.Second,
		chromedp.Text(e.node.FullXPath(), &text, chromedp.BySearch))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (e *chromeElement) Click() error {
	return e.page.run(5*time.Second, chromedp.MouseClickNode(e.node))
}

func (e *chromeElement) Type(text string) error {
	return e.page.run(10*time.Second,
		chromedp.SendKeys(e.node.FullXPath(), text, chromedp.BySearch))
}

func (e *chromeElement) ScrollIntoView() error {
	return e.page.run(5*time.Second,
		chromedp.ScrollIntoView(e.node.FullXPath(), chromedp.BySearch))
}

func (e *chromeElement) Query(selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := e.page.run(10*time.Second,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll,
			chromedp.FromNode(e.node), chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("scoped query %q: %w", selector, err)
	}
	return e.page.wrapNodes(nodes), nil
}
