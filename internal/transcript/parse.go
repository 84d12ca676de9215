package transcript

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrMalformedLine is returned for a line that is neither a recognized
// command nor a listing entry.
var ErrMalformedLine = errors.New("malformed transcript line")

const maxLineSize = 1024 * 1024

// ParseLine classifies a single line. It has no memory of previous lines.
func ParseLine(line string) (Event, error) {
	line = strings.TrimRight(line, "\r\n")

	if rest, ok := strings.CutPrefix(line, "$ "); ok {
		return parseCommand(line, rest)
	}
	if name, ok := strings.CutPrefix(line, "dir "); ok && name != "" {
		return Dir(name), nil
	}
	if sizeText, name, ok := strings.Cut(line, " "); ok && name != "" {
		// Sizes must fit an int64 so that exports can store them.
		size, err := strconv.ParseUint(sizeText, 10, 63)
		if err == nil {
			return File(size, name), nil
		}
	}
	return Event{}, errors.Wrapf(ErrMalformedLine, "%q", line)
}

func parseCommand(line, rest string) (Event, error) {
	rest = strings.TrimSpace(rest)
	if rest == "ls" {
		return List(), nil
	}
	if target, ok := strings.CutPrefix(rest, "cd "); ok {
		if target = strings.TrimSpace(target); target != "" {
			return Navigate(target), nil
		}
	}
	return Event{}, errors.Wrapf(ErrMalformedLine, "%q", line)
}

// Scanner reads events one line at a time. Blank lines are skipped.
//
//	sc := transcript.NewScanner(r)
//	for sc.Scan() {
//		ev := sc.Event()
//	}
//	if err := sc.Err(); err != nil { ... }
type Scanner struct {
	sc   *bufio.Scanner
	line int
	ev   Event
	err  error
}

func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	return &Scanner{sc: sc}
}

// Scan advances to the next event. It returns false at end of input or on
// the first malformed line.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.sc.Scan() {
		s.line++
		text := s.sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		ev, err := ParseLine(text)
		if err != nil {
			s.err = errors.Wrapf(err, "line %d", s.line)
			return false
		}
		s.ev = ev
		return true
	}
	if err := s.sc.Err(); err != nil {
		s.err = errors.Wrapf(err, "read transcript after line %d", s.line)
	}
	return false
}

// Event returns the most recent event produced by Scan.
func (s *Scanner) Event() Event { return s.ev }

// Line returns the 1-based line number of the most recent event.
func (s *Scanner) Line() int { return s.line }

// Err returns the first error encountered, if any.
func (s *Scanner) Err() error { return s.err }

// Parse reads a whole transcript into events.
func Parse(r io.Reader) ([]Event, error) {
	sc := NewScanner(r)
	var events []Event
	for sc.Scan() {
		events = append(events, sc.Event())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// ParseString is Parse over an in-memory transcript.
func ParseString(s string) ([]Event, error) {
	return Parse(strings.NewReader(s))
}
