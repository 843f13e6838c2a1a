package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

type scannedLine struct {
	err  error
	text string
}

// LineReader yields trimmed lines from r, one message per line, and lets
// the caller stop waiting when its context ends. A single background
// scanner feeds every ReadLine call.
type LineReader struct {
	r     io.Reader
	lines chan scannedLine
	start sync.Once
}

// NewLineReader wraps r. Scanning starts on the first ReadLine.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: r, lines: make(chan scannedLine)}
}

func (l *LineReader) scan() {
	defer close(l.lines)
	scanner := bufio.NewScanner(l.r)
	for scanner.Scan() {
		l.lines <- scannedLine{text: strings.TrimSpace(scanner.Text())}
	}
	if err := scanner.Err(); err != nil {
		l.lines <- scannedLine{err: err}
	}
}

// ReadLine returns the next line. It returns io.EOF once input is
// exhausted and ErrInputCancelled if ctx ends first.
func (l *LineReader) ReadLine(ctx context.Context) (string, error) {
	l.start.Do(func() { go l.scan() })

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case line, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		return line.text, line.err
	}
}
