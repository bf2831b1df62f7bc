package cdecl

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionActive is returned by NewSession while another Session is
// open in this process.
var ErrSessionActive = errors.New("cdecl: a parsing session is already active in this process")

// ErrSessionClosed is returned by Parse after Close.
var ErrSessionClosed = errors.New("cdecl: session is closed")

// Parser is implemented by the external parsing front-end.
//
// headers are the entry files of one partition; when there is more than
// one, the front-end is responsible for combining them into a single
// translation unit (e.g. via a generated wrapper file). args are extra
// compiler arguments, already concatenated global-then-partition.
type Parser interface {
	Parse(ctx context.Context, headers []string, args []string) (*TranslationUnit, error)
}

var (
	sessionMu     sync.Mutex
	sessionActive bool
)

// Session is the process-wide handle to the parsing engine. At most one
// Session exists at a time; Parse calls on a shared Session are
// serialized.
type Session struct {
	mu     sync.Mutex
	parser Parser
	closed bool
}

// NewSession claims the process parsing slot. It fails with
// ErrSessionActive if another Session has not been closed yet.
func NewSession(p Parser) (*Session, error) {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	if sessionActive {
		return nil, ErrSessionActive
	}
	sessionActive = true
	return &Session{parser: p}, nil
}

// Parse runs the front-end over one partition's headers.
func (s *Session) Parse(ctx context.Context, headers []string, args []string) (*TranslationUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.parser.Parse(ctx, headers, args)
}

// Close releases the process parsing slot. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	sessionMu.Lock()
	sessionActive = false
	sessionMu.Unlock()
}
