// Package progress reports the log lines and results of one extraction to a
// caller, either buffered into the final result or streamed as they happen.
package progress

import (
	"fmt"
	"log"
	"sync"
)

type Kind string

const (
	KindLog   Kind = "log"
	KindMeta  Kind = "meta"
	KindVideo Kind = "video"
	KindDone  Kind = "done"
	KindError Kind = "error"
)

// Event is one unit of the streaming protocol.
type Event struct {
	Kind    Kind
	Payload any
}

// Meta is the payload of a KindMeta event.
type Meta struct {
	Title string `json:"title"`
}

// Emitter receives events in the exact order they occur.
// It must not buffer or reorder.
type Emitter func(kind Kind, payload any)

// Nop is the emitter of the buffered path, everything ends up in the result instead.
func Nop(Kind, any) {}

// Channel returns an Emitter pushing every event into ch.
// Sends block until the consumer receives, so the consumer sets the pace.
func Channel(ch chan<- Event) Emitter {
	return func(kind Kind, payload any) {
		ch <- Event{Kind: kind, Payload: payload}
	}
}

// Log accumulates the log lines of one call and emits each one as a KindLog event.
type Log struct {
	mu    sync.Mutex
	lines []string
	emit  Emitter
}

func NewLog(emit Emitter) *Log {
	if emit == nil {
		emit = Nop
	}

	return &Log{emit: emit}
}

// Printf records the line, prints it to the process log and emits it.
func (l *Log) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[INFO]: %s", msg)
	l.append(msg)
}

// Relay is an Emitter folding the log lines of a nested call into l.
// Other kinds are dropped, the caller reports those itself.
func (l *Log) Relay(kind Kind, payload any) {
	if kind != KindLog {
		return
	}

	msg, ok := payload.(string)
	if !ok {
		return
	}

	l.append(msg)
}

// Emit forwards a non-log event.
func (l *Log) Emit(kind Kind, payload any) {
	l.emit(kind, payload)
}

// Lines returns a copy of the lines recorded so far.
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines := make([]string, len(l.lines))
	copy(lines, l.lines)
	return lines
}

func (l *Log) append(msg string) {
	l.mu.Lock()
	l.lines = append(l.lines, msg)
	l.mu.Unlock()

	l.emit(KindLog, msg)
}
