// Package browsertest provides a scripted in-memory browser.Page.
package browsertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/laytan/tubescript/internal/browser"
)

// Element is a fake DOM element.
type Element struct {
	Text      string
	AriaLabel string
	Hidden    bool
	// ClickErr is returned by every Click.
	ClickErr error
	// OnClick runs after a successful click, used to reveal other elements.
	OnClick func()

	mu     sync.Mutex
	clicks int
}

func (e *Element) Visible(context.Context) (bool, error) {
	return !e.Hidden, nil
}

func (e *Element) Click(context.Context, time.Duration) error {
	if e.ClickErr != nil {
		return e.ClickErr
	}

	e.mu.Lock()
	e.clicks++
	e.mu.Unlock()

	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Page is a fake page where elements are keyed by the CSS selector used to find them.
type Page struct {
	mu sync.Mutex

	Elements map[string][]*Element
	// HTML is returned by OuterHTML, keyed by selector.
	HTML map[string][]string
	// Counts overrides Count for a selector, otherwise len(Elements[css]) is used.
	Counts map[string]int

	PageTitle string
	PageURL   string

	NavigateErr error
	// OnScroll runs on every ScrollViewport, used to simulate infinite scroll.
	OnScroll func(p *Page)

	Navigated   []string
	PageDowns   int
	Scrolls     int
	CountCalls  int
	LocateCalls int
}

func NewPage() *Page {
	return &Page{
		Elements: map[string][]*Element{},
		HTML:     map[string][]string{},
		Counts:   map[string]int{},
	}
}

// Add appends elements under css.
func (p *Page) Add(css string, els ...*Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Elements[css] = append(p.Elements[css], els...)
}

// SetCount sets the Count result of css.
func (p *Page) SetCount(css string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Counts[css] = n
}

func (p *Page) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Navigated = append(p.Navigated, url)
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	if p.PageURL == "" {
		p.PageURL = url
	}
	return nil
}

func (p *Page) PressPageDown(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PageDowns++
	return nil
}

func (p *Page) ScrollViewport(context.Context) error {
	p.mu.Lock()
	p.Scrolls++
	hook := p.OnScroll
	p.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *Page) Locate(_ context.Context, loc browser.Locator) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LocateCalls++

	var out []browser.Element
	for _, el := range p.Elements[loc.CSS] {
		if loc.Matches(el.Text, el.AriaLabel) {
			out = append(out, el)
		}
	}
	return out, nil
}

func (p *Page) Count(_ context.Context, css string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CountCalls++

	if n, ok := p.Counts[css]; ok {
		return n, nil
	}
	return len(p.Elements[css]), nil
}

func (p *Page) OuterHTML(_ context.Context, css string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.HTML[css]))
	copy(out, p.HTML[css])
	return out, nil
}

func (p *Page) Title(context.Context) (string, error) {
	return p.PageTitle, nil
}

func (p *Page) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.PageURL, nil
}

// Session wraps a Page and records lifecycle calls.
type Session struct {
	P         browser.Page
	Trace     string
	Stages    []string
	Released  bool
	ReleaseFn func(logf func(string, ...any))
}

func (s *Session) Page() browser.Page { return s.P }

func (s *Session) Checkpoint(_ context.Context, stage string) {
	s.Stages = append(s.Stages, stage)
}

func (s *Session) TracePath() string { return s.Trace }

func (s *Session) Release(logf func(string, ...any)) {
	s.Released = true
	if s.ReleaseFn != nil {
		s.ReleaseFn(logf)
	}
}

// Acquirer hands out sessions from New, one per Acquire call.
type Acquirer struct {
	mu  sync.Mutex
	New func(n int) (*Session, error)

	Diagnostics []bool
	Sessions    []*Session
}

// ErrNoSession is returned when an Acquirer has no New func.
var ErrNoSession = errors.New("no session configured")

func (a *Acquirer) Acquire(_ context.Context, diagnostics bool) (browser.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.New == nil {
		return nil, ErrNoSession
	}

	s, err := a.New(len(a.Sessions))
	if err != nil {
		return nil, err
	}
	a.Diagnostics = append(a.Diagnostics, diagnostics)
	a.Sessions = append(a.Sessions, s)
	return s, nil
}

// Single returns an Acquirer handing out sessions over the same page.
func Single(p browser.Page) *Acquirer {
	return &Acquirer{New: func(int) (*Session, error) {
		return &Session{P: p}, nil
	}}
}
