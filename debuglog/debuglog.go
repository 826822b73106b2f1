// Package debuglog provides the line-oriented diagnostic sinks that player
// code writes to. A Sink is handed to each hook at construction, so tests and
// the match runner capture output without touching process-global state.
package debuglog

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Sink writes whole lines to an underlying writer. Each line reaches the
// writer in a single Write call made under the sink's lock, so concurrent
// callers never interleave partial lines.
type Sink struct {
	w       io.Writer
	lines   atomic.Uint64
	dropped atomic.Uint64
}

// New wraps w in a Sink.
func New(w io.Writer) *Sink {
	return &Sink{w: zerolog.SyncWriter(w)}
}

// Line writes msg followed by a newline. A failed write is counted and
// returned.
func (s *Sink) Line(msg string) error {
	buf := make([]byte, 0, len(msg)+1)
	buf = append(buf, msg...)
	buf = append(buf, '\n')

	if _, err := s.w.Write(buf); err != nil {
		s.dropped.Add(1)
		return err
	}
	s.lines.Add(1)
	return nil
}

// Write passes p through under the sink's lock without counting lines. It
// lets a Sink mirror lines another sink has already framed.
func (s *Sink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Lines returns the number of lines written successfully.
func (s *Sink) Lines() uint64 {
	return s.lines.Load()
}

// Dropped returns the number of lines whose write failed.
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}

var stdout = sync.OnceValue(func() *Sink { return New(os.Stdout) })

// Stdout returns the process-wide sink bound to standard output.
func Stdout() *Sink {
	return stdout()
}

// Buffer is an in-memory io.Writer that is safe to read while it is being
// written. It backs the per-player debug logs of a match.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Bytes returns a copy of everything written so far.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

// String returns everything written so far.
func (b *Buffer) String() string {
	return string(b.Bytes())
}

// Lines splits the contents into lines without their trailing newlines.
func (b *Buffer) Lines() []string {
	s := strings.TrimSuffix(b.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Tail returns at most the last n lines.
func (b *Buffer) Tail(n int) []string {
	lines := b.Lines()
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}
