// Package browser is the automation surface the extraction pipeline drives.
//
// A Session owns one browser and page for the duration of one call and is
// released on every exit path, see With.
package browser

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// Page is the subset of a browser tab the pipeline needs.
type Page interface {
	// Navigate loads url and returns once the DOM content is loaded.
	Navigate(ctx context.Context, url string) error
	PressPageDown(ctx context.Context) error
	// ScrollViewport scrolls down by one viewport height.
	ScrollViewport(ctx context.Context) error

	Locate(ctx context.Context, loc Locator) ([]Element, error)
	Count(ctx context.Context, css string) (int, error)
	// OuterHTML returns the outer HTML of every element matching css, in document order.
	OuterHTML(ctx context.Context, css string) ([]string, error)

	Title(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
}

type Element interface {
	Visible(ctx context.Context) (bool, error)
	// Click gives up after timeout, zero means no timeout of its own.
	Click(ctx context.Context, timeout time.Duration) error
}

// Session is one exclusive browser context and page.
type Session interface {
	Page() Page
	// Checkpoint records a diagnostic snapshot named after stage,
	// it is a no-op when diagnostics are disabled.
	Checkpoint(ctx context.Context, stage string)
	// TracePath is the artifact path, empty when diagnostics are disabled.
	TracePath() string
	// Release persists the artifact and closes all resources.
	// Failures are logged, never returned.
	Release(logf func(format string, args ...any))
}

type Acquirer interface {
	Acquire(ctx context.Context, diagnostics bool) (Session, error)
}

// With acquires a session, runs fn and releases the session,
// also when fn fails or panics.
func With(
	ctx context.Context,
	a Acquirer,
	diagnostics bool,
	logf func(format string, args ...any),
	fn func(Session) error,
) error {
	s, err := a.Acquire(ctx, diagnostics)
	if err != nil {
		return fmt.Errorf("acquiring browser session: %w", err)
	}
	defer s.Release(logf)

	return fn(s)
}

// Locator selects elements by CSS and, if Name is set, by an accessible name
// rule matched against the element text or its aria-label.
type Locator struct {
	CSS  string
	Name *regexp.Regexp
}

func (l Locator) Matches(text, ariaLabel string) bool {
	if l.Name == nil {
		return true
	}

	return l.Name.MatchString(text) || l.Name.MatchString(ariaLabel)
}

func (l Locator) String() string {
	if l.Name == nil {
		return l.CSS
	}

	return fmt.Sprintf("%s[name~=%s]", l.CSS, l.Name)
}

// Presence is the outcome of a best-effort wait.
// Absence is an expected outcome, not an error.
type Presence int

const (
	Absent Presence = iota
	Present
)

func (p Presence) String() string {
	if p == Present {
		return "present"
	}
	return "absent"
}

const maxPoll = 100 * time.Millisecond

// WaitVisible polls until the first element matching loc is visible or timeout passes.
func WaitVisible(ctx context.Context, p Page, loc Locator, timeout time.Duration) (Element, Presence) {
	var found Element
	presence := poll(ctx, timeout, func() bool {
		els, err := p.Locate(ctx, loc)
		if err != nil || len(els) == 0 {
			return false
		}

		if ok, err := els[0].Visible(ctx); err == nil && ok {
			found = els[0]
			return true
		}
		return false
	})

	return found, presence
}

// WaitAttached polls until at least one element matches css or timeout passes.
func WaitAttached(ctx context.Context, p Page, css string, timeout time.Duration) Presence {
	return poll(ctx, timeout, func() bool {
		n, err := p.Count(ctx, css)
		return err == nil && n > 0
	})
}

func poll(ctx context.Context, timeout time.Duration, check func() bool) Presence {
	interval := timeout / 10
	if interval > maxPoll {
		interval = maxPoll
	}
	if interval <= 0 {
		interval = time.Millisecond
	}

	deadline := time.Now().Add(timeout)
	for {
		if check() {
			return Present
		}

		if !time.Now().Before(deadline) {
			return Absent
		}

		select {
		case <-ctx.Done():
			return Absent
		case <-time.After(interval):
		}
	}
}
