package progress

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteEvent encodes ev in the event-stream format:
//
//	event:<kind>
//	data:<json payload>
//	<blank line>
func WriteEvent(w io.Writer, ev Event) error {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", ev.Kind, err)
	}

	if _, err := fmt.Fprintf(w, "event:%s\ndata:%s\n\n", ev.Kind, data); err != nil {
		return fmt.Errorf("writing %s event: %w", ev.Kind, err)
	}

	return nil
}
