package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/laytan/tubescript/internal/browser/browsertest"
	"github.com/laytan/tubescript/internal/progress"
	"github.com/laytan/tubescript/internal/tube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscripts struct {
	calls []string
	fn    func(videoURL string, emit progress.Emitter) (*tube.Transcript, error)
}

func (f *fakeTranscripts) Transcript(_ context.Context, videoURL string, emit progress.Emitter) (*tube.Transcript, error) {
	f.calls = append(f.calls, videoURL)
	return f.fn(videoURL, emit)
}

func okTranscripts() *fakeTranscripts {
	return &fakeTranscripts{fn: func(string, progress.Emitter) (*tube.Transcript, error) {
		return &tube.Transcript{Transcript: []tube.Segment{{Timestamp: "0:00", Text: "hi"}}}, nil
	}}
}

func items(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf(
			`<ytd-playlist-video-renderer><a id="video-title" href="/watch?v=%d&amp;list=PL1">
				Video %d
			</a></ytd-playlist-video-renderer>`,
			i+1, i+1,
		)
	}
	return out
}

func playlistPage(n int) *browsertest.Page {
	p := browsertest.NewPage()
	p.PageTitle = "Go talks - YouTube"
	p.SetCount(videoRenderer, n)
	p.HTML[videoRenderer] = items(n)
	return p
}

func newTestCrawler(p *browsertest.Page, tr Transcripts) (*Crawler, *browsertest.Acquirer) {
	a := browsertest.Single(p)
	c := New(a, tr)
	c.ItemWait = 10 * time.Millisecond
	c.Sleep = func(context.Context, time.Duration) error { return nil }
	return c, a
}

func TestPlaylist_PartialFailure(t *testing.T) {
	p := playlistPage(3)
	tr := &fakeTranscripts{fn: func(videoURL string, emit progress.Emitter) (*tube.Transcript, error) {
		emit(progress.KindLog, "Navigating to "+videoURL)
		if strings.Contains(videoURL, "v=2") {
			return nil, tube.ErrTranscriptControlNotFound
		}
		emit(progress.KindVideo, &tube.Transcript{})
		return &tube.Transcript{Transcript: []tube.Segment{{Timestamp: "0:00", Text: videoURL}}}, nil
	}}

	var events []progress.Event
	c, a := newTestCrawler(p, tr)
	res, err := c.Playlist(context.Background(), "https://www.youtube.com/playlist?list=PL1", func(kind progress.Kind, payload any) {
		events = append(events, progress.Event{Kind: kind, Payload: payload})
	})
	require.NoError(t, err)

	assert.Equal(t, "Go talks - YouTube", res.Title)
	require.Len(t, res.Videos, 3)
	assert.False(t, res.Videos[0].Failed())
	assert.True(t, res.Videos[1].Failed())
	assert.Equal(t, `could not find "Show transcript" control`, res.Videos[1].Error)
	assert.False(t, res.Videos[2].Failed())

	assert.Equal(t, VideoRef{Title: "Video 1", URL: "https://www.youtube.com/watch?v=1&list=PL1"}, res.Videos[0].VideoRef)
	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=1&list=PL1",
		"https://www.youtube.com/watch?v=2&list=PL1",
		"https://www.youtube.com/watch?v=3&list=PL1",
	}, tr.calls)

	assert.Equal(t, []string{
		"Fetching playlist https://www.youtube.com/playlist?list=PL1",
		"Found 3 videos in playlist",
		"Processing [1/3] Video 1",
		"Navigating to https://www.youtube.com/watch?v=1&list=PL1",
		"✓ transcript ok (1 lines)",
		"Processing [2/3] Video 2",
		"Navigating to https://www.youtube.com/watch?v=2&list=PL1",
		`✗ transcript failed: could not find "Show transcript" control`,
		"Processing [3/3] Video 3",
		"Navigating to https://www.youtube.com/watch?v=3&list=PL1",
		"✓ transcript ok (1 lines)",
	}, res.Logs)

	var kinds []progress.Kind
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, progress.KindLog, kinds[0])
	assert.Equal(t, progress.Event{Kind: progress.KindMeta, Payload: progress.Meta{Title: "Go talks - YouTube"}}, events[1])

	var videoEvents []Video
	for _, ev := range events {
		if ev.Kind == progress.KindVideo {
			videoEvents = append(videoEvents, ev.Payload.(Video))
		}
	}
	assert.Equal(t, res.Videos, videoEvents)

	require.Len(t, a.Sessions, 1)
	assert.True(t, a.Sessions[0].Released)
	assert.Equal(t, []bool{false}, a.Diagnostics)
}

func TestPlaylist_JSON(t *testing.T) {
	res := Playlist{
		Title: "list",
		Videos: []Video{
			{VideoRef: VideoRef{Title: "a", URL: "u1"}, Transcript: []tube.Segment{{Timestamp: "0:00", Text: "x"}}},
			{VideoRef: VideoRef{Title: "b", URL: "u2"}, Error: "boom"},
			{VideoRef: VideoRef{Title: "c", URL: "u3"}},
		},
		Logs: []string{},
	}

	b, err := json.Marshal(res)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"title": "list",
		"videos": [
			{"title": "a", "url": "u1", "transcript": [{"timestamp": "0:00", "text": "x"}]},
			{"title": "b", "url": "u2", "error": "boom"},
			{"title": "c", "url": "u3", "transcript": []}
		],
		"logs": []
	}`, string(b))
}

func TestPlaylist_InfiniteScrollIsBounded(t *testing.T) {
	p := playlistPage(5)
	p.OnScroll = func(p *browsertest.Page) {
		p.Counts[videoRenderer] += 5
	}

	c, _ := newTestCrawler(p, okTranscripts())
	c.MaxVideos = 1000

	res, err := c.Playlist(context.Background(), "https://www.youtube.com/playlist?list=inf", nil)
	require.NoError(t, err)

	assert.Equal(t, 20, p.Scrolls)
	assert.Len(t, res.Videos, 5)
}

func TestPlaylist_CapsVideos(t *testing.T) {
	p := playlistPage(30)
	p.HTML[videoRenderer] = items(150)
	p.OnScroll = func(p *browsertest.Page) {
		p.Counts[videoRenderer] += 30
	}

	tr := okTranscripts()
	c, _ := newTestCrawler(p, tr)

	res, err := c.Playlist(context.Background(), "https://www.youtube.com/playlist?list=big", nil)
	require.NoError(t, err)

	// 30, 60, 90 scroll, 120 stops.
	assert.Equal(t, 3, p.Scrolls)
	assert.Len(t, res.Videos, 100)
	assert.Len(t, tr.calls, 100)
	assert.Equal(t, "Video 100", res.Videos[99].Title)
}

func TestPlaylist_StopsWhenCountStalls(t *testing.T) {
	p := playlistPage(10)
	grown := false
	p.OnScroll = func(p *browsertest.Page) {
		if !grown {
			p.Counts[videoRenderer] = 12
			grown = true
		}
	}

	c, _ := newTestCrawler(p, okTranscripts())
	_, err := c.Playlist(context.Background(), "https://www.youtube.com/playlist?list=stall", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, p.Scrolls)
	assert.Equal(t, 3, p.CountCalls-1)
}

func TestPlaylist_Empty(t *testing.T) {
	p := playlistPage(0)

	tr := okTranscripts()
	c, _ := newTestCrawler(p, tr)
	res, err := c.Playlist(context.Background(), "https://www.youtube.com/playlist?list=empty", nil)
	require.NoError(t, err)

	assert.Equal(t, 0, p.Scrolls)
	assert.NotNil(t, res.Videos)
	assert.Empty(t, res.Videos)
	assert.Empty(t, tr.calls)
	assert.Contains(t, res.Logs, "Found 0 videos in playlist")
}

func TestPlaylist_NavigateError(t *testing.T) {
	p := playlistPage(3)
	p.NavigateErr = errors.New("net::ERR_CONNECTION_REFUSED")

	tr := okTranscripts()
	c, a := newTestCrawler(p, tr)
	_, err := c.Playlist(context.Background(), "https://www.youtube.com/playlist?list=down", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "net::ERR_CONNECTION_REFUSED")
	assert.True(t, a.Sessions[0].Released)
	assert.Empty(t, tr.calls)
}

func TestPlaylist_BadLinkIsLogged(t *testing.T) {
	p := playlistPage(2)
	p.HTML[videoRenderer] = []string{
		`<ytd-playlist-video-renderer><a id="video-title" href="%zz">Broken</a></ytd-playlist-video-renderer>`,
		items(1)[0],
	}

	tr := okTranscripts()
	c, _ := newTestCrawler(p, tr)
	res, err := c.Playlist(context.Background(), "https://www.youtube.com/playlist?list=bad", nil)
	require.NoError(t, err)

	require.Len(t, res.Videos, 1)
	assert.Equal(t, "Video 1", res.Videos[0].Title)
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=1&list=PL1"}, tr.calls)

	var skipped []string
	for _, line := range res.Logs {
		if strings.HasPrefix(line, "Skipping playlist item") {
			skipped = append(skipped, line)
		}
	}
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0], `"Broken"`)
	assert.Contains(t, skipped[0], `"%zz"`)
	assert.Contains(t, res.Logs, "Found 1 videos in playlist")
}
