package stream

import "strings"

// LineBuffer reassembles complete lines out of arbitrarily chunked stream
// reads. A chunk boundary may fall anywhere, including inside a line; the
// incomplete trailing fragment is carried over to the next Push.
type LineBuffer struct {
	carry string
}

// Push appends chunk to the carry-over and returns every complete line in
// order. The segment after the last newline (possibly empty) becomes the new
// carry-over. No line is ever emitted twice.
func (b *LineBuffer) Push(chunk string) []string {
	data := b.carry + chunk
	parts := strings.Split(data, "\n")
	b.carry = parts[len(parts)-1]
	return parts[:len(parts)-1]
}

// Flush returns the pending carry-over as a final unterminated line and
// clears it. ok is false when nothing was pending.
func (b *LineBuffer) Flush() (line string, ok bool) {
	line, b.carry = b.carry, ""
	return line, line != ""
}
