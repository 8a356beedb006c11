package tubescript

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/laytan/tubescript/internal/progress"
	"github.com/laytan/tubescript/internal/search"
	"github.com/laytan/tubescript/internal/tube"
	"golang.org/x/sync/errgroup"
)

type searchResponse struct {
	*tube.Transcript
	Query   string `json:"query"`
	Matches []int  `json:"matches"`
}

func (s *Server) getTranscript(c *fiber.Ctx) error {
	videoURL := strings.Clone(c.Query("videoUrl"))
	if videoURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "videoUrl required"})
	}
	query := strings.Clone(c.Query("q"))

	res, err := s.transcript(c.UserContext(), videoURL, nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch transcript",
			"details": err.Error(),
		})
	}

	if query == "" {
		return c.JSON(res)
	}

	log.Printf("[INFO]: searching for %q in %q", query, res.Title)
	matches := search.Segments(res.Transcript, query)
	if matches == nil {
		matches = []int{}
	}
	return c.JSON(searchResponse{Transcript: res, Query: query, Matches: matches})
}

func (s *Server) getPlaylist(c *fiber.Ctx) error {
	playlistURL := strings.Clone(c.Query("playlistUrl"))
	if playlistURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "playlistUrl required"})
	}

	res, err := s.playlist(c.UserContext(), playlistURL, nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(res)
}

func (s *Server) streamTranscript(c *fiber.Ctx) error {
	return stream(c, "videoUrl", func(ctx context.Context, target string, emit progress.Emitter) error {
		_, err := s.transcript(ctx, target, emit)
		return err
	})
}

func (s *Server) streamPlaylist(c *fiber.Ctx) error {
	return stream(c, "playlistUrl", func(ctx context.Context, target string, emit progress.Emitter) error {
		_, err := s.playlist(ctx, target, emit)
		return err
	})
}

// stream answers with an event stream of everything run emits, terminated by
// a done or error event.
//
// The run outlives the handler, so it gets a background context and its own
// copy of the target. A client that goes away does not stop the run.
func stream(c *fiber.Ctx, param string, run func(ctx context.Context, target string, emit progress.Emitter) error) error {
	target := strings.Clone(c.Query(param))
	if target == "" {
		c.Status(fiber.StatusBadRequest)
		return nil
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx := context.Background()
		events := make(chan progress.Event)

		var group errgroup.Group
		group.Go(func() error {
			defer close(events)
			emit := progress.Channel(events)

			defer func() {
				if r := recover(); r != nil {
					log.Printf("[ERROR]: panic streaming %s %q: %v\n%s", param, target, r, debug.Stack())
					emit(progress.KindError, fmt.Sprintf("internal error: %v", r))
				}
			}()

			if err := run(ctx, target, emit); err != nil {
				emit(progress.KindError, err.Error())
				return nil
			}

			emit(progress.KindDone, "completed")
			return nil
		})

		group.Go(func() error {
			var werr error
			for ev := range events {
				if werr != nil {
					continue
				}

				if werr = progress.WriteEvent(w, ev); werr == nil {
					werr = w.Flush()
				}
			}
			return werr
		})

		if err := group.Wait(); err != nil {
			log.Printf("[WARN]: streaming %s %q: %v", param, target, err)
		}
	})

	return nil
}
