package browser

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// TracePath computes the artifact path for a session starting at start and
// creates dir if needed. Called before navigation, the artifact itself is
// only written when the session is released.
func TracePath(dir string, start time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating trace dir %q: %w", dir, err)
	}

	return filepath.Join(dir, fmt.Sprintf("trace-%d.zip", start.UnixMilli())), nil
}

// sessionTracePath is TracePath when diagnostics are on, and an empty path
// without touching the filesystem when they are off.
func sessionTracePath(dir string, diagnostics bool, start time.Time) (string, error) {
	if !diagnostics {
		return "", nil
	}

	return TracePath(dir, start)
}

type snapshot struct {
	Stage      string    `json:"stage"`
	At         time.Time `json:"at"`
	Screenshot string    `json:"screenshot,omitempty"`
	HTML       string    `json:"html,omitempty"`
	Err        string    `json:"error,omitempty"`

	png  []byte
	html string
}

// trace collects snapshots in memory for one session.
type trace struct {
	mu      sync.Mutex
	started time.Time
	snaps   []snapshot
}

func newTrace(start time.Time) *trace {
	return &trace{started: start}
}

func (t *trace) add(stage string, png []byte, html string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := snapshot{Stage: stage, At: time.Now(), png: png, html: html}
	if err != nil {
		s.Err = err.Error()
	}
	t.snaps = append(t.snaps, s)
}

// save writes the zip: one screenshot and html per snapshot plus a trace.json index.
func (t *trace) save(path string) (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	index := struct {
		Started time.Time  `json:"started"`
		Steps   []snapshot `json:"steps"`
	}{Started: t.started}

	for i, s := range t.snaps {
		base := fmt.Sprintf("%02d-%s", i, slug(s.Stage))
		if len(s.png) > 0 {
			s.Screenshot = base + ".png"
			if err := writeZipFile(zw, s.Screenshot, s.png); err != nil {
				return err
			}
		}

		if s.html != "" {
			s.HTML = base + ".html"
			if err := writeZipFile(zw, s.HTML, []byte(s.html)); err != nil {
				return err
			}
		}

		index.Steps = append(index.Steps, s)
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding trace index: %w", err)
	}
	if err := writeZipFile(zw, "trace.json", data); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing zip: %w", err)
	}
	return nil
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("adding %q to trace: %w", name, err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %q to trace: %w", name, err)
	}
	return nil
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, s)
}
