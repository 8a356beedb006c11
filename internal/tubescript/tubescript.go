// Package tubescript serves the extraction pipeline over HTTP, as JSON and as
// an event stream.
package tubescript

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html"
	"github.com/laytan/tubescript/internal/index"
	"github.com/laytan/tubescript/internal/progress"
	"github.com/laytan/tubescript/internal/store"
	"github.com/laytan/tubescript/internal/tube"
)

var (
	//go:embed templates
	_templatesFS embed.FS
	templatesFS  fs.FS
)

func init() {
	subTemplatesFS, err := fs.Sub(_templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	templatesFS = subTemplatesFS
}

type Transcripts interface {
	Transcript(ctx context.Context, videoURL string, emit progress.Emitter) (*tube.Transcript, error)
}

type Playlists interface {
	Playlist(ctx context.Context, playlistURL string, emit progress.Emitter) (*index.Playlist, error)
}

type Server struct {
	Transcripts Transcripts
	Playlists   Playlists

	// Ledger records every run, nil disables it.
	Ledger *store.Ledger

	// StaticDir is served at the root, next to the index page.
	StaticDir string
	Port      int
}

type IndexData struct {
	Title string
}

func (s *Server) App() *fiber.App {
	engine := html.NewFileSystem(http.FS(templatesFS), ".html")

	app := fiber.New(fiber.Config{
		Views:       engine,
		ViewsLayout: "layout",
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[INFO]: ${status} ${method} ${path} ${latency}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Render("index", IndexData{Title: "tubescript"})
	})

	api := app.Group("/api")
	api.Get("/transcript", s.getTranscript)
	api.Get("/transcript/stream", s.streamTranscript)
	api.Get("/playlist", s.getPlaylist)
	api.Get("/playlist/stream", s.streamPlaylist)

	if s.StaticDir != "" {
		app.Static("/", s.StaticDir)
	}

	return app
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.Port)
	log.Printf("[INFO]: listening on http://localhost%s", addr)
	return s.App().Listen(addr)
}

// transcript runs and records one single video extraction.
func (s *Server) transcript(ctx context.Context, videoURL string, emit progress.Emitter) (*tube.Transcript, error) {
	id := s.Ledger.Start(ctx, store.RunKindTranscript, videoURL)

	res, err := s.Transcripts.Transcript(ctx, videoURL, emit)
	if err != nil {
		log.Printf("[ERROR]: transcript of %q: %v", videoURL, err)
		s.Ledger.Finish(ctx, id, err, 0, "")
		return nil, err
	}

	s.Ledger.Finish(ctx, id, nil, len(res.Transcript), res.TracePath)
	return res, nil
}

// playlist runs and records one playlist crawl, including its per video failures.
func (s *Server) playlist(ctx context.Context, playlistURL string, emit progress.Emitter) (*index.Playlist, error) {
	id := s.Ledger.Start(ctx, store.RunKindPlaylist, playlistURL)

	res, err := s.Playlists.Playlist(ctx, playlistURL, emit)
	if err != nil {
		log.Printf("[ERROR]: playlist %q: %v", playlistURL, err)
		s.Ledger.Finish(ctx, id, err, 0, "")
		return nil, err
	}

	var segments int
	for _, v := range res.Videos {
		if v.Failed() {
			s.Ledger.Failure(ctx, id, v.URL, v.Error)
			continue
		}
		segments += len(v.Transcript)
	}

	s.Ledger.Finish(ctx, id, nil, segments, "")
	return res, nil
}
