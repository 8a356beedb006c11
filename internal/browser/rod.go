package browser

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Config is the part of the process config the launcher needs.
type Config struct {
	// Bin is the chromium binary, empty lets rod download/find one.
	Bin      string
	Headless bool
	Locale   string
	TraceDir string
}

// Launcher starts a fresh headless chromium per session, sessions never share a browser.
type Launcher struct {
	cfg Config
}

func NewLauncher(cfg Config) *Launcher {
	return &Launcher{cfg: cfg}
}

func (l *Launcher) Acquire(ctx context.Context, diagnostics bool) (Session, error) {
	start := time.Now()

	tracePath, err := sessionTracePath(l.cfg.TraceDir, diagnostics, start)
	if err != nil {
		return nil, err
	}

	ln := launcher.New().
		Headless(l.cfg.Headless).
		Set("disable-setuid-sandbox").
		Set("lang", l.cfg.Locale)
	if l.cfg.Bin != "" {
		ln = ln.Bin(l.cfg.Bin)
	}

	u, err := ln.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching chromium: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		ln.Kill()
		return nil, fmt.Errorf("connecting to chromium: %w", err)
	}

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		ln.Cleanup()
		return nil, fmt.Errorf("opening page: %w", err)
	}
	page = page.Context(context.Background())

	if err := (proto.EmulationSetLocaleOverride{Locale: l.cfg.Locale}).Call(page); err != nil {
		log.Printf("[WARN]: setting locale %q: %v", l.cfg.Locale, err)
	}

	s := &rodSession{
		launcher:  ln,
		browser:   b,
		page:      page,
		tracePath: tracePath,
	}
	if diagnostics {
		s.trace = newTrace(start)
	}

	return s, nil
}

type rodSession struct {
	launcher  *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	tracePath string
	trace     *trace
}

func (s *rodSession) Page() Page {
	return &rodPage{page: s.page}
}

func (s *rodSession) TracePath() string {
	return s.tracePath
}

func (s *rodSession) Checkpoint(ctx context.Context, stage string) {
	if s.trace == nil {
		return
	}

	p := s.page.Context(ctx)
	png, err := p.Screenshot(false, nil)
	if err != nil {
		s.trace.add(stage, nil, "", fmt.Errorf("screenshot: %w", err))
		return
	}

	html, err := p.HTML()
	s.trace.add(stage, png, html, err)
}

func (s *rodSession) Release(logf func(format string, args ...any)) {
	if s.trace != nil {
		if err := s.trace.save(s.tracePath); err != nil {
			log.Printf("[ERROR]: trace stop error: %v", err)
		} else {
			logf("Trace saved to %s", s.tracePath)
		}
	}

	if err := s.browser.Close(); err != nil {
		log.Printf("[WARN]: closing browser: %v", err)
	}
	s.launcher.Cleanup()
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(url); err != nil {
		return err
	}
	wait()

	return ctx.Err()
}

func (p *rodPage) PressPageDown(ctx context.Context) error {
	return p.page.Context(ctx).Keyboard.Press(input.PageDown)
}

func (p *rodPage) ScrollViewport(ctx context.Context) error {
	_, err := p.page.Context(ctx).Eval(`() => window.scrollBy(0, window.innerHeight)`)
	return err
}

func (p *rodPage) Locate(ctx context.Context, loc Locator) ([]Element, error) {
	els, err := p.page.Context(ctx).Elements(loc.CSS)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", loc, err)
	}

	out := make([]Element, 0, len(els))
	for _, el := range els {
		if loc.Name != nil {
			text, _ := el.Text()
			var label string
			if attr, err := el.Attribute("aria-label"); err == nil && attr != nil {
				label = *attr
			}

			if !loc.Matches(text, label) {
				continue
			}
		}

		out = append(out, &rodElement{el: el})
	}

	return out, nil
}

func (p *rodPage) Count(ctx context.Context, css string) (int, error) {
	els, err := p.page.Context(ctx).Elements(css)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", css, err)
	}
	return len(els), nil
}

func (p *rodPage) OuterHTML(ctx context.Context, css string) ([]string, error) {
	els, err := p.page.Context(ctx).Elements(css)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", css, err)
	}

	htmls := make([]string, 0, len(els))
	for _, el := range els {
		h, err := el.HTML()
		if err != nil {
			return nil, fmt.Errorf("reading html of %s: %w", css, err)
		}
		htmls = append(htmls, h)
	}

	return htmls, nil
}

func (p *rodPage) Title(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (p *rodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Visible(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

func (e *rodElement) Click(ctx context.Context, timeout time.Duration) error {
	el := e.el.Context(ctx)
	if timeout > 0 {
		el = el.Timeout(timeout)
	}

	return el.Click(proto.InputMouseButtonLeft, 1)
}
