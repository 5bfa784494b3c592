// Package wire implements line framing for the chat wire format.
//
// The protocol is a stream of text lines terminated by CRLF. The network
// hands us arbitrarily chunked reads, so a line may be split across any
// number of chunks, including between the CR and the LF. The Splitter
// reassembles that stream: feed it chunks as they arrive and it emits
// complete lines in arrival order, holding any trailing partial line until
// the rest shows up.
package wire

import "bytes"

// Splitter accumulates raw bytes and splits them into terminated lines.
// The zero value is ready to use. A Splitter is not safe for concurrent
// use; it belongs to the single goroutine draining a connection.
type Splitter struct {
	residue []byte
}

// Feed appends chunk to the buffered residue and returns every complete
// line now available, terminator stripped, in the order the bytes arrived.
// Lines terminated by a bare LF are tolerated. Empty lines (a terminator
// with nothing before it) are dropped rather than delivered.
func (s *Splitter) Feed(chunk []byte) []string {
	s.residue = append(s.residue, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(s.residue, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(s.residue[:i], []byte{'\r'})
		if len(line) > 0 {
			lines = append(lines, string(line))
		}
		s.residue = s.residue[i+1:]
	}

	// Drop the consumed prefix for real once everything buffered was
	// emitted, so the residue does not pin the old backing array.
	if len(s.residue) == 0 {
		s.residue = nil
	}
	return lines
}

// Pending reports how many buffered bytes are waiting for a terminator.
func (s *Splitter) Pending() int {
	return len(s.residue)
}

// Reset discards any buffered partial line.
func (s *Splitter) Reset() {
	s.residue = nil
}
