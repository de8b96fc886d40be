package stream

import (
	"io"
	"strings"

	"github.com/nhatphongdo/stock-agent-sub001/internal/models"
)

// EventReader drains a newline-delimited event stream from an io.Reader,
// tolerating arbitrary chunk boundaries. Lines are decoded strictly in
// arrival order.
type EventReader struct {
	r       io.Reader
	buf     LineBuffer
	pending []string
	chunk   []byte
	err     error
}

// NewEventReader wraps r. The reader does not close r.
func NewEventReader(r io.Reader) *EventReader {
	return &EventReader{
		r:     r,
		chunk: make([]byte, 4096),
	}
}

// Next returns the next decoded event. A malformed line yields a
// *DecodeError; callers should report it and keep calling Next. Natural
// stream end is io.EOF, delivered only after the carried-over final
// unterminated line (if any); a mid-stream transport failure surfaces as the
// underlying read error. Whitespace-only lines are skipped.
func (er *EventReader) Next() (*models.StreamEvent, error) {
	for {
		line, err := er.nextLine()
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		return Decode(line)
	}
}

func (er *EventReader) nextLine() (string, error) {
	for len(er.pending) == 0 {
		if er.err != nil {
			return "", er.err
		}
		n, err := er.r.Read(er.chunk)
		if n > 0 {
			er.pending = er.buf.Push(string(er.chunk[:n]))
		}
		if err != nil {
			er.err = err
			if tail, ok := er.buf.Flush(); ok {
				er.pending = append(er.pending, tail)
			}
		}
	}
	line := er.pending[0]
	er.pending = er.pending[1:]
	return line, nil
}
