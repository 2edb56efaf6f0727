// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package ytlink

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// fallbackLogEntry is one line of the fallback invocation log.
// Grounded on original_source/app/core/ytdlp_fallback_log.py's
// append_ytdlp_log payload shape.
type fallbackLogEntry struct {
	Timestamp time.Time `json:"ts"`
	Source    string    `json:"source"`
	Artist    string    `json:"artist,omitempty"`
	Track     string    `json:"track,omitempty"`
	Album     string    `json:"album,omitempty"`
	Reason    string    `json:"reason"`
	Found     bool      `json:"found"`
	Error     string    `json:"error,omitempty"`
}

// fallbackLogger appends JSON-lines records of every fallback
// invocation to a bounded, retention-pruned log file. Grounded on
// ytdlp_fallback_log.py's append/prune/read functions: a background
// prune runs at most every 6 hours, dropping lines older than the
// configured retention horizon.
type fallbackLogger struct {
	mu        sync.Mutex
	path      string
	retention time.Duration
	lastPrune time.Time
}

// newFallbackLogger builds a logger rooted at <storageRoot>/logs/ytdlp_fallback.log.
func newFallbackLogger(storageRoot string, retentionDays int) *fallbackLogger {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	root := storageRoot
	if root == "" {
		root = "storage"
	}
	return &fallbackLogger{
		path:      filepath.Join(root, "logs", "ytdlp_fallback.log"),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// path returns the log file's filesystem location, mirroring
// get_ytdlp_log_path.
func (f *fallbackLogger) logPath() string {
	return f.path
}

func (f *fallbackLogger) shouldPrune(now time.Time) bool {
	return f.lastPrune.IsZero() || now.Sub(f.lastPrune) > 6*time.Hour
}

// append writes one entry to the log, pruning expired entries first if
// the prune interval has elapsed.
func (f *fallbackLogger) append(entry fallbackLogEntry) error {
	now := time.Now().UTC()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}
	if entry.Source == "" {
		entry.Source = "ytdlp"
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	if f.shouldPrune(now) {
		if err := f.pruneLocked(now.Add(-f.retention)); err != nil {
			return err
		}
		f.lastPrune = now
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write(append(data, '\n'))
	return err
}

// pruneLocked rewrites the log file keeping only entries at or after
// cutoff. Must be called with mu held.
func (f *fallbackLogger) pruneLocked(cutoff time.Time) error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var kept []string
	for _, line := range strings.Split(strings.TrimRight(string(raw), "\n"), "\n") {
		if line == "" {
			continue
		}
		var entry fallbackLogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if !entry.Timestamp.Before(cutoff) {
			kept = append(kept, line)
		}
	}

	content := strings.Join(kept, "\n")
	if len(kept) > 0 {
		content += "\n"
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// readRecent returns up to limit of the most recent non-expired
// entries, mirroring read_ytdlp_logs.
func (f *fallbackLogger) readRecent(limit int) ([]fallbackLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-f.retention)
	var entries []fallbackLogEntry
	for _, line := range strings.Split(strings.TrimRight(string(raw), "\n"), "\n") {
		if line == "" {
			continue
		}
		var entry fallbackLogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Timestamp.Before(cutoff) {
			continue
		}
		entries = append(entries, entry)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// count returns the number of non-expired entries, mirroring
// count_ytdlp_logs.
func (f *fallbackLogger) count() (int, error) {
	entries, err := f.readRecent(0)
	return len(entries), err
}
