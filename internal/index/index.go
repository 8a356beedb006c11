// Package index enumerates the videos of a playlist and extracts the
// transcript of each of them, one after the other.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/laytan/tubescript/internal/browser"
	"github.com/laytan/tubescript/internal/progress"
	"github.com/laytan/tubescript/internal/tube"
)

const (
	videoRenderer = "ytd-playlist-video-renderer"
	videoAnchor   = "a#video-title"
)

type VideoRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Video is the outcome for one discovered video, either a transcript or an error.
type Video struct {
	VideoRef
	Transcript []tube.Segment
	Error      string
}

func (v Video) Failed() bool {
	return v.Error != ""
}

func (v Video) MarshalJSON() ([]byte, error) {
	if v.Failed() {
		return json.Marshal(struct {
			VideoRef
			Error string `json:"error"`
		}{v.VideoRef, v.Error})
	}

	transcript := v.Transcript
	if transcript == nil {
		transcript = []tube.Segment{}
	}
	return json.Marshal(struct {
		VideoRef
		Transcript []tube.Segment `json:"transcript"`
	}{v.VideoRef, transcript})
}

type Playlist struct {
	Title  string   `json:"title"`
	Videos []Video  `json:"videos"`
	Logs   []string `json:"logs"`
}

// Transcripts extracts the transcript of a single video.
type Transcripts interface {
	Transcript(ctx context.Context, videoURL string, emit progress.Emitter) (*tube.Transcript, error)
}

// Crawler loads playlists. The zero value is not usable, see New.
type Crawler struct {
	Sessions    browser.Acquirer
	Transcripts Transcripts

	// MaxScrolls bounds the scroll-and-measure loop.
	MaxScrolls int
	// MaxVideos caps both the loop and the number of returned videos.
	MaxVideos int

	ItemWait     time.Duration
	ScrollSettle time.Duration

	Sleep func(ctx context.Context, d time.Duration) error
}

func New(sessions browser.Acquirer, transcripts Transcripts) *Crawler {
	return &Crawler{
		Sessions:     sessions,
		Transcripts:  transcripts,
		MaxScrolls:   20,
		MaxVideos:    100,
		ItemWait:     15 * time.Second,
		ScrollSettle: time.Second,
		Sleep:        sleep,
	}
}

// Playlist enumerates the videos at playlistURL and extracts each transcript in order.
//
// Failures of individual videos end up in their Video entry, only failing to
// load the playlist itself returns an error. The playlist session is released
// before the videos are processed, each of them gets its own session.
func (c *Crawler) Playlist(ctx context.Context, playlistURL string, emit progress.Emitter) (*Playlist, error) {
	logs := progress.NewLog(emit)
	logs.Printf("Fetching playlist %s", playlistURL)

	var (
		title string
		refs  []VideoRef
	)
	err := browser.With(ctx, c.Sessions, false, logs.Printf, func(s browser.Session) error {
		p := s.Page()
		if err := p.Navigate(ctx, playlistURL); err != nil {
			return fmt.Errorf("navigating to %q: %w", playlistURL, err)
		}

		// Empty and slow playlists are handled by the scroll loop.
		browser.WaitAttached(ctx, p, videoRenderer, c.ItemWait)

		var err error
		if title, err = p.Title(ctx); err != nil {
			return fmt.Errorf("reading playlist title: %w", err)
		}
		logs.Emit(progress.KindMeta, progress.Meta{Title: title})

		if err := c.loadAll(ctx, p); err != nil {
			return err
		}

		refs, err = c.videoRefs(ctx, p, logs)
		return err
	})
	if err != nil {
		return nil, err
	}

	logs.Printf("Found %d videos in playlist", len(refs))

	videos := make([]Video, 0, len(refs))
	for i, ref := range refs {
		logs.Printf("Processing [%d/%d] %s", i+1, len(refs), ref.Title)

		video := Video{VideoRef: ref}
		t, err := c.Transcripts.Transcript(ctx, ref.URL, logs.Relay)
		if err != nil {
			video.Error = err.Error()
			if video.Error == "" {
				video.Error = "unknown error"
			}
		} else {
			video.Transcript = t.Transcript
		}

		videos = append(videos, video)
		logs.Emit(progress.KindVideo, video)

		if video.Failed() {
			logs.Printf("✗ transcript failed: %s", video.Error)
		} else {
			logs.Printf("✓ transcript ok (%d lines)", len(video.Transcript))
		}
	}

	return &Playlist{
		Title:  title,
		Videos: videos,
		Logs:   logs.Lines(),
	}, nil
}

// loadAll scrolls until the item count reaches MaxVideos, stops growing
// between two measurements, or MaxScrolls iterations pass.
func (c *Crawler) loadAll(ctx context.Context, p browser.Page) error {
	last := 0
	for i := 0; i < c.MaxScrolls; i++ {
		count, err := p.Count(ctx, videoRenderer)
		if err != nil {
			return fmt.Errorf("counting playlist items: %w", err)
		}

		if count >= c.MaxVideos || count == last {
			return nil
		}
		last = count

		if err := p.ScrollViewport(ctx); err != nil {
			return fmt.Errorf("scrolling playlist: %w", err)
		}

		if err := c.sleep(ctx, c.ScrollSettle); err != nil {
			return err
		}
	}

	return nil
}

// videoRefs reads the item anchors in document order, resolving every href
// against the page URL.
func (c *Crawler) videoRefs(ctx context.Context, p browser.Page, logs *progress.Log) ([]VideoRef, error) {
	pageURL, err := p.URL(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page url: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page url %q: %w", pageURL, err)
	}

	items, err := p.OuterHTML(ctx, videoRenderer)
	if err != nil {
		return nil, fmt.Errorf("reading playlist items: %w", err)
	}

	refs := make([]VideoRef, 0, len(items))
	for i, item := range items {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(item))
		if err != nil {
			return nil, fmt.Errorf("parsing playlist item %d: %w", i, err)
		}

		doc.Find(videoAnchor).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			u, err := base.Parse(href)
			if err != nil {
				logs.Printf("Skipping playlist item %q, bad link %q: %v", strings.TrimSpace(a.Text()), href, err)
				return
			}

			refs = append(refs, VideoRef{
				Title: strings.TrimSpace(a.Text()),
				URL:   u.String(),
			})
		})

		if len(refs) >= c.MaxVideos {
			break
		}
	}

	if len(refs) > c.MaxVideos {
		refs = refs[:c.MaxVideos]
	}
	return refs, nil
}

func (c *Crawler) sleep(ctx context.Context, d time.Duration) error {
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
