package llm

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/port"
)

// pullFunc yields the next fragment of a response. done reports the end of
// the stream; fragment may be empty for keep-alive or role-only chunks.
type pullFunc func() (fragment string, done bool, err error)

var _ port.Stream = (*bodyStream)(nil)

// bodyStream adapts a pullFunc reading an HTTP body to port.Stream. Close
// cancels the request, so a consumer may stop at any point.
type bodyStream struct {
	pull   pullFunc
	body   io.Closer
	cancel context.CancelFunc

	current string
	err     error
	done    bool
	closed  bool
}

func newBodyStream(pull pullFunc, body io.Closer, cancel context.CancelFunc) *bodyStream {
	return &bodyStream{pull: pull, body: body, cancel: cancel}
}

func (s *bodyStream) Next() bool {
	if s.done || s.closed {
		return false
	}
	for {
		fragment, done, err := s.pull()
		if err != nil {
			s.err = fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
			s.finish()
			return false
		}
		if fragment != "" {
			s.current = fragment
			if done {
				// Deliver the last fragment; the next call ends the stream.
				s.pull = func() (string, bool, error) { return "", true, nil }
			}
			return true
		}
		if done {
			s.finish()
			return false
		}
	}
}

func (s *bodyStream) finish() {
	s.done = true
	s.current = ""
	s.Close()
}

func (s *bodyStream) Fragment() string {
	return s.current
}

func (s *bodyStream) Err() error {
	return s.err
}

func (s *bodyStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	if s.body != nil {
		return s.body.Close()
	}
	return nil
}

// sliceStream replays precomputed fragments.
type sliceStream struct {
	fragments []string
	pos       int
	err       error
	closed    bool
}

// NewSliceStream returns a Stream over fragments that ends with err (nil for
// a clean end).
func NewSliceStream(fragments []string, err error) port.Stream {
	return &sliceStream{fragments: fragments, pos: -1, err: err}
}

func (s *sliceStream) Next() bool {
	if s.closed || s.pos >= len(s.fragments) {
		return false
	}
	s.pos++
	return s.pos < len(s.fragments)
}

func (s *sliceStream) Fragment() string {
	if s.pos < 0 || s.pos >= len(s.fragments) {
		return ""
	}
	return s.fragments[s.pos]
}

func (s *sliceStream) Err() error {
	if s.closed || s.pos < len(s.fragments) {
		return nil
	}
	return s.err
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

// Collect drains a stream into one string and closes it.
func Collect(s port.Stream) (string, error) {
	defer s.Close()
	var sb strings.Builder
	for s.Next() {
		sb.WriteString(s.Fragment())
	}
	return sb.String(), s.Err()
}
