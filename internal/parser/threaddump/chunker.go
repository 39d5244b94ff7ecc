package threaddump

import (
	"bufio"
	"io"
	"strings"
)

const headerMarker = "Full thread dump"

// IsHeaderChunk reports whether a chunk opens a new snapshot: exactly two
// lines, the second starting with "Full thread dump".
func IsHeaderChunk(chunk []string) bool {
	return len(chunk) == 2 && strings.HasPrefix(chunk[1], headerMarker)
}

// Chunker splits a line stream into blank-line separated chunks of trimmed
// lines. Read errors end the stream; Err reports the first one.
type Chunker struct {
	scanner *bufio.Scanner
	done    bool
}

// NewChunker creates a chunker whose lines may be up to maxLineSize bytes.
func NewChunker(r io.Reader, maxLineSize int) *Chunker {
	scanner := bufio.NewScanner(r)
	initial := 64 * 1024
	if maxLineSize < initial {
		initial = maxLineSize
	}
	scanner.Buffer(make([]byte, 0, initial), maxLineSize)
	return &Chunker{scanner: scanner}
}

// Next returns the next non-empty chunk, or ok=false once the stream is exhausted.
func (c *Chunker) Next() (chunk []string, ok bool) {
	for !c.done {
		chunk = c.readChunk()
		if len(chunk) > 0 {
			return chunk, true
		}
	}
	return nil, false
}

// Err returns the read error that ended the stream, if any.
func (c *Chunker) Err() error {
	return c.scanner.Err()
}

func (c *Chunker) readChunk() []string {
	var chunk []string
	for c.scanner.Scan() {
		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			return chunk
		}
		chunk = append(chunk, line)
	}
	c.done = true
	return chunk
}
