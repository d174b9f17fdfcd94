package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// UploadLedger keeps the durable record of post ids that already produced a
// video, preventing duplicate processing across runs. It is backed by an
// append-only line file loaded fully into memory at startup; membership
// checks are O(1). Ids are compared case-insensitively.
type UploadLedger struct {
	filePath string
	enabled  bool
	seen     map[string]struct{}
	mu       sync.RWMutex
	logger   zerolog.Logger
}

// NewUploadLedger loads the ledger file if it exists. When enabled is false
// the ledger is fully bypassed: Seen always reports false and Record is a
// no-op, so callers need no branching of their own.
func NewUploadLedger(filePath string, enabled bool, logger zerolog.Logger) (*UploadLedger, error) {
	l := &UploadLedger{
		filePath: filePath,
		enabled:  enabled,
		seen:     make(map[string]struct{}),
		logger:   logger,
	}
	if !enabled {
		return l, nil
	}

	if dir := filepath.Dir(filePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	if err := l.load(); err != nil {
		return nil, fmt.Errorf("failed to load upload ledger: %w", err)
	}
	return l, nil
}

// Seen reports whether the post id was already recorded.
func (l *UploadLedger) Seen(postID string) bool {
	if !l.enabled {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[normalizeID(postID)]
	return ok
}

// Record marks the post id as processed. Recording an already-present id is
// a no-op. A persistence failure does not fail the call: the id stays seen
// for the rest of the process and a warning is logged, since the entry will
// not survive a restart.
func (l *UploadLedger) Record(postID string) error {
	if !l.enabled {
		return nil
	}
	id := normalizeID(postID)
	if id == "" {
		return fmt.Errorf("post id cannot be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[id]; ok {
		return nil
	}
	l.seen[id] = struct{}{}

	if err := l.appendLine(id); err != nil {
		l.logger.Warn().Err(err).Str("post_id", id).
			Msg("Failed to persist ledger entry; duplicate protection will not survive a restart")
	}
	return nil
}

// Count returns the number of recorded ids.
func (l *UploadLedger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.seen)
}

func (l *UploadLedger) load() error {
	f, err := os.Open(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := normalizeID(scanner.Text())
		if id == "" {
			continue
		}
		l.seen[id] = struct{}{}
	}
	return scanner.Err()
}

func (l *UploadLedger) appendLine(id string) error {
	f, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintln(f, id)
	return err
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
