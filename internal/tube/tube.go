package tube

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/laytan/tubescript/internal/browser"
	"github.com/laytan/tubescript/internal/progress"
)

type Segment struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// Transcript is the result of one successful extraction.
// Segments are in document order, not sorted by timestamp.
type Transcript struct {
	Title      string    `json:"title"`
	Transcript []Segment `json:"transcript"`
	Logs       []string  `json:"logs"`
	TracePath  string    `json:"tracePath,omitempty"`
}

var (
	ErrTranscriptControlNotFound = errors.New(`could not find "Show transcript" control`)
	ErrTranscriptPanelTimeout    = errors.New("transcript panel did not appear")
)

// Elements of the watch page UI, matched the way a user would find them.
var (
	expandButton = browser.Locator{CSS: "tp-yt-paper-button#expand"}
	moreButton   = browser.Locator{
		CSS:  `button, [role="button"]`,
		Name: regexp.MustCompile(`(?i)more`),
	}
	transcriptButton = browser.Locator{
		CSS:  "button",
		Name: regexp.MustCompile(`(?i)show transcript`),
	}
	moreActionsButton = browser.Locator{
		CSS:  `button, [role="button"]`,
		Name: regexp.MustCompile(`(?i)more actions`),
	}
	transcriptMenuItem = browser.Locator{
		CSS:  `[role="menuitem"], tp-yt-paper-item, ytd-menu-service-item-renderer`,
		Name: regexp.MustCompile(`(?i)show transcript`),
	}
)

const (
	transcriptPanel  = "ytd-transcript-renderer"
	segmentRenderer  = "ytd-transcript-segment-renderer"
	segmentTimestamp = ".segment-timestamp"
	segmentText      = ".segment-text"
)

// Timeouts are the budgets and settle delays of the interaction stages.
type Timeouts struct {
	NavigateSettle    time.Duration
	ExpandSettle      time.Duration
	ExpandBatchSettle time.Duration
	ExpandClick       time.Duration
	Visibility        time.Duration
	DirectClick       time.Duration
	MenuClick         time.Duration
	Panel             time.Duration
}

var DefaultTimeouts = Timeouts{
	NavigateSettle:    time.Second,
	ExpandSettle:      300 * time.Millisecond,
	ExpandBatchSettle: 500 * time.Millisecond,
	ExpandClick:       5 * time.Second,
	Visibility:        8 * time.Second,
	DirectClick:       300 * time.Millisecond,
	MenuClick:         5 * time.Second,
	Panel:             10 * time.Second,
}

// Client extracts transcripts from video pages, one browser session per call.
type Client struct {
	Sessions    browser.Acquirer
	Diagnostics bool
	Timeouts    Timeouts

	// Sleep waits out settle delays, replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

func New(sessions browser.Acquirer, diagnostics bool) *Client {
	return &Client{
		Sessions:    sessions,
		Diagnostics: diagnostics,
		Timeouts:    DefaultTimeouts,
		Sleep:       sleep,
	}
}

// Transcript runs the whole interaction sequence against videoURL.
//
// Every log line is emitted as it happens, the result is emitted as a
// progress.KindVideo event before the session is released. With a nil emit
// the lines only end up in the returned Transcript's Logs.
func (c *Client) Transcript(ctx context.Context, videoURL string, emit progress.Emitter) (*Transcript, error) {
	logs := progress.NewLog(emit)

	var (
		tracePath string
		m         *machine
	)
	err := browser.With(ctx, c.Sessions, c.Diagnostics, logs.Printf, func(s browser.Session) error {
		tracePath = s.TracePath()
		m = &machine{client: c, session: s, page: s.Page(), log: logs}

		if err := m.run(ctx, videoURL); err != nil {
			logs.Printf("Error: %v", err)
			return err
		}

		logs.Printf("Extracted %d lines", len(m.segments))
		logs.Emit(progress.KindVideo, &Transcript{
			Title:      m.title,
			Transcript: m.segments,
			Logs:       logs.Lines(),
			TracePath:  tracePath,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Transcript{
		Title:      m.title,
		Transcript: m.segments,
		Logs:       logs.Lines(),
		TracePath:  tracePath,
	}, nil
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep == nil {
		return sleep(ctx, d)
	}
	return c.Sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
