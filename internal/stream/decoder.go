package stream

import (
	"encoding/json"
	"fmt"

	"github.com/nhatphongdo/stock-agent-sub001/internal/models"
)

// DecodeError reports a single malformed stream line. It is recoverable:
// the consumer logs it and keeps reading subsequent lines.
type DecodeError struct {
	Raw   string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode stream line %q: %v", e.Raw, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Decode parses one stream line into a typed event. Invalid JSON and
// unrecognized type tags both yield a *DecodeError; neither terminates the
// stream.
func Decode(line string) (*models.StreamEvent, error) {
	var event models.StreamEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return nil, &DecodeError{Raw: line, Cause: err}
	}
	return &event, nil
}
