package tube

import (
	"context"
	"fmt"

	"github.com/laytan/tubescript/internal/browser"
	"github.com/laytan/tubescript/internal/progress"
)

type State int

const (
	Navigating State = iota
	ExpandingDescription
	LocatingTranscriptControl
	AwaitingTranscriptPanel
	Extracting
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Navigating:
		return "Navigating"
	case ExpandingDescription:
		return "Expanding Description"
	case LocatingTranscriptControl:
		return "Locating Transcript Control"
	case AwaitingTranscriptPanel:
		return "Awaiting Transcript Panel"
	case Extracting:
		return "Extracting"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// machine walks one watch page through the interaction stages.
type machine struct {
	client  *Client
	session browser.Session
	page    browser.Page
	log     *progress.Log

	state    State
	title    string
	segments []Segment
}

func (m *machine) run(ctx context.Context, videoURL string) error {
	steps := []struct {
		state State
		fn    func(context.Context) error
	}{
		{Navigating, func(ctx context.Context) error { return m.navigate(ctx, videoURL) }},
		{ExpandingDescription, m.expandDescription},
		{LocatingTranscriptControl, m.openTranscript},
		{AwaitingTranscriptPanel, m.awaitPanel},
		{Extracting, m.extract},
	}

	for _, step := range steps {
		m.enter(ctx, step.state)
		if err := step.fn(ctx); err != nil {
			m.enter(ctx, Failed)
			return err
		}
	}

	m.enter(ctx, Done)
	return nil
}

func (m *machine) enter(ctx context.Context, s State) {
	m.state = s
	m.session.Checkpoint(ctx, s.String())
}

func (m *machine) navigate(ctx context.Context, videoURL string) error {
	m.log.Printf("Navigating to %s", videoURL)
	if err := m.page.Navigate(ctx, videoURL); err != nil {
		return fmt.Errorf("navigating to %q: %w", videoURL, err)
	}

	// Client side rendering needs a moment, the scroll triggers lazy content.
	if err := m.client.sleep(ctx, m.client.Timeouts.NavigateSettle); err != nil {
		return err
	}

	if err := m.page.PressPageDown(ctx); err != nil {
		return fmt.Errorf("scrolling down: %w", err)
	}
	return nil
}

// expandDescription is best-effort, only a cancelled context fails it.
func (m *machine) expandDescription(ctx context.Context) error {
	m.log.Printf(`Looking for "...more" expand button`)

	_, ok := firstSuccess(ctx,
		strategy{name: "expand", try: m.clickExpandButtons},
		strategy{name: "more", try: m.clickMoreButton},
	)
	if !ok {
		m.log.Printf(`"expand" / "more" button not found`)
	}

	return ctx.Err()
}

// clickExpandButtons clicks every visible exact expand control, sites render duplicates.
// It succeeds as soon as any exist, visible or not.
func (m *machine) clickExpandButtons(ctx context.Context) bool {
	t := m.client.Timeouts

	buttons, err := m.page.Locate(ctx, expandButton)
	if err != nil {
		m.log.Printf("Error while locating #expand buttons: %v", err)
	}
	m.log.Printf("Found %d #expand buttons", len(buttons))
	if len(buttons) == 0 {
		return false
	}

	for i, btn := range buttons {
		if visible, err := btn.Visible(ctx); err != nil || !visible {
			continue
		}

		m.log.Printf("Clicking #expand button index %d", i)
		if err := btn.Click(ctx, t.ExpandClick); err != nil {
			m.log.Printf("#expand button index %d failed to click: %v", i, err)
			continue
		}
		_ = m.client.sleep(ctx, t.ExpandSettle)
	}

	_ = m.client.sleep(ctx, t.ExpandBatchSettle)
	return true
}

func (m *machine) clickMoreButton(ctx context.Context) bool {
	t := m.client.Timeouts

	btn, presence := browser.WaitVisible(ctx, m.page, moreButton, t.Visibility)
	if presence == browser.Absent {
		return false
	}

	m.log.Printf(`Clicking "more"`)
	if err := btn.Click(ctx, t.ExpandClick); err != nil {
		m.log.Printf(`"more" button failed to click: %v`, err)
		return false
	}

	_ = m.client.sleep(ctx, t.ExpandBatchSettle)
	return true
}

func (m *machine) openTranscript(ctx context.Context) error {
	_, ok := firstSuccess(ctx,
		strategy{name: "button", try: m.clickTranscriptButton},
		strategy{name: "menu", try: m.clickTranscriptMenuItem},
	)
	if !ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrTranscriptControlNotFound
	}

	return nil
}

// clickTranscriptButton tries every candidate in order with a short timeout,
// some are hidden or covered by others.
func (m *machine) clickTranscriptButton(ctx context.Context) bool {
	candidates, err := m.page.Locate(ctx, transcriptButton)
	if err != nil {
		m.log.Printf("Error while locating transcript buttons: %v", err)
		return false
	}
	m.log.Printf("Found %d candidate transcript buttons", len(candidates))

	for i, btn := range candidates {
		m.log.Printf("Attempting to click transcript button index %d", i)
		if err := btn.Click(ctx, m.client.Timeouts.DirectClick); err != nil {
			m.log.Printf("Button index %d failed to click: %v", i, err)
			continue
		}

		m.log.Printf("Clicked transcript button index %d", i)
		return true
	}

	return false
}

func (m *machine) clickTranscriptMenuItem(ctx context.Context) bool {
	t := m.client.Timeouts
	m.log.Printf(`Direct "Show transcript" buttons failed, trying kebab menu`)

	kebab, presence := browser.WaitVisible(ctx, m.page, moreActionsButton, t.Visibility)
	if presence == browser.Absent {
		m.log.Printf(`"More actions" menu not found`)
		return false
	}
	if err := kebab.Click(ctx, t.MenuClick); err != nil {
		m.log.Printf(`"More actions" menu failed to click: %v`, err)
		return false
	}

	item, presence := browser.WaitVisible(ctx, m.page, transcriptMenuItem, t.Visibility)
	if presence == browser.Absent {
		m.log.Printf(`Menu item "Show transcript" not found`)
		return false
	}

	m.log.Printf(`Clicking menu item "Show transcript"`)
	if err := item.Click(ctx, t.MenuClick); err != nil {
		m.log.Printf(`Menu item "Show transcript" failed to click: %v`, err)
		return false
	}
	return true
}

// awaitPanel waits for the first panel only, duplicates may follow.
func (m *machine) awaitPanel(ctx context.Context) error {
	m.log.Printf("Waiting for transcript panel")

	if browser.WaitAttached(ctx, m.page, transcriptPanel, m.client.Timeouts.Panel) == browser.Absent {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("waiting %s: %w", m.client.Timeouts.Panel, ErrTranscriptPanelTimeout)
	}
	return nil
}

func (m *machine) extract(ctx context.Context) error {
	m.log.Printf("Extracting transcript")

	title, err := m.page.Title(ctx)
	if err != nil {
		return fmt.Errorf("reading page title: %w", err)
	}

	panels, err := m.page.OuterHTML(ctx, transcriptPanel)
	if err != nil {
		return fmt.Errorf("reading transcript panels: %w", err)
	}

	segments, err := ParseSegments(panels)
	if err != nil {
		return err
	}

	m.title = title
	m.segments = segments
	return nil
}
