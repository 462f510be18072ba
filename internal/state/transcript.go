// internal/state/transcript.go
package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/docchat/internal/types"
)

// TranscriptStore is a JSONL-backed append-only transcript store.
// Messages are stored per remote session in transcripts/<sessionID>.jsonl;
// the transcript is only ever appended to, or cleared wholesale by a reset.
type TranscriptStore struct {
	root  string
	mu    sync.Mutex
	locks map[types.SessionID]*sync.Mutex
}

// NewTranscriptStore creates a file-backed TranscriptStore rooted at the given directory.
func NewTranscriptStore(root string) *TranscriptStore {
	return &TranscriptStore{
		root:  root,
		locks: make(map[types.SessionID]*sync.Mutex),
	}
}

// getLock returns the per-session mutex, creating one if it doesn't exist.
func (s *TranscriptStore) getLock(session types.SessionID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lock, ok := s.locks[session]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[session] = lock
	return lock
}

func (s *TranscriptStore) transcriptPath(session types.SessionID) string {
	return filepath.Join(s.root, "transcripts", string(session)+".jsonl")
}

// Append adds a message to the session's transcript.
func (s *TranscriptStore) Append(_ context.Context, session types.SessionID, msg *types.Message) error {
	lock := s.getLock(session)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Dir(s.transcriptPath(session))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create transcripts dir: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	f, err := os.OpenFile(s.transcriptPath(session), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript file: %w", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	return nil
}

// List returns all messages for the given session in append order.
func (s *TranscriptStore) List(_ context.Context, session types.SessionID) ([]*types.Message, error) {
	lock := s.getLock(session)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(s.transcriptPath(session))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open transcript file: %w", err)
	}
	defer f.Close()

	var msgs []*types.Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg types.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		msgs = append(msgs, &msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript file: %w", err)
	}

	return msgs, nil
}

// Count returns the number of messages for the given session.
func (s *TranscriptStore) Count(_ context.Context, session types.SessionID) (int64, error) {
	lock := s.getLock(session)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(s.transcriptPath(session))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open transcript file: %w", err)
	}
	defer f.Close()

	var count int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan transcript file: %w", err)
	}
	return count, nil
}

// Clear removes the session's transcript entirely.
func (s *TranscriptStore) Clear(_ context.Context, session types.SessionID) error {
	lock := s.getLock(session)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.transcriptPath(session)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove transcript file: %w", err)
	}
	return nil
}
