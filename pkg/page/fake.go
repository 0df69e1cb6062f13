package page

import "time"

// FakeElement is a scriptable Element for tests.
type FakeElement struct {
	Attrs     map[string]string
	TextValue string
	Children  map[string][]*FakeElement
	ClickErr  error
	Clicked   bool
	OnClick   func()
	Typed     []string
}

func (e *FakeElement) Attribute(name string) (string, bool, error) {
	val, ok := e.Attrs[name]
	return val, ok, nil
}

func (e *FakeElement) Text() (string, error) {
	return e.TextValue, nil
}

func (e *FakeElement) Click() error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicked = true
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *FakeElement) Type(text string) error {
	e.Typed = append(e.Typed, text)
	return nil
}

func (e *FakeElement) ScrollIntoView() error { return nil }

func (e *FakeElement) Query(selector string) ([]Element, error) {
	return wrapFakes(e.Children[selector]), nil
}

func wrapFakes(fakes []*FakeElement) []Element {
	elems := make([]Element, 0, len(fakes))
	for _, f := range fakes {
		elems = append(elems, f)
	}
	return elems
}

// FakePage is a scriptable Page for tests. Hook functions override the
// default empty behavior; counters record interactions.
type FakePage struct {
	QueryFunc    func(selector string) ([]Element, error)
	XPathFunc    func(expr string) ([]Element, error)
	NavigateFunc func(url string) error
	HTMLFunc     func() (string, error)

	Navigations   []string
	ScrollCount   int
	EscapePresses int
	EvalScripts   []string
	CurrentURL    string
}

func (p *FakePage) Navigate(url string) error {
	p.Navigations = append(p.Navigations, url)
	p.CurrentURL = url
	if p.NavigateFunc != nil {
		return p.NavigateFunc(url)
	}
	return nil
}

func (p *FakePage) Query(selector string) ([]Element, error) {
	if p.QueryFunc != nil {
		return p.QueryFunc(selector)
	}
	return nil, nil
}

func (p *FakePage) QueryXPath(expr string) ([]Element, error) {
	if p.XPathFunc != nil {
		return p.XPathFunc(expr)
	}
	return nil, nil
}

func (p *FakePage) WaitVisible(selector string, timeout time.Duration) error {
	return nil
}

func (p *FakePage) ScrollBy(pixels int) error {
	p.ScrollCount++
	return nil
}

func (p *FakePage) ScrollToBottom() error {
	p.ScrollCount++
	return nil
}

func (p *FakePage) Evaluate(script string, out interface{}) error {
	p.EvalScripts = append(p.EvalScripts, script)
	return nil
}

func (p *FakePage) PressEscape() error {
	p.EscapePresses++
	return nil
}

func (p *FakePage) HTML() (string, error) {
	if p.HTMLFunc != nil {
		return p.HTMLFunc()
	}
	return "<html></html>", nil
}

func (p *FakePage) Location() (string, error) {
	return p.CurrentURL, nil
}
