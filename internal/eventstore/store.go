// Package eventstore implements an append-only, file-backed event log, one
// JSON file per aggregate, with optimistic concurrency control.
package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/utafrali/inventory-es/internal/domain"
	apperrors "github.com/utafrali/inventory-es/pkg/errors"
)

// Store is a file-based, append-only event store. One JSON array file holds
// the full log for a given aggregate. Writers are serialized per aggregate
// via a lazily created mutex, mirroring the source's per-aggregate asyncio
// lock; Go additionally makes every write crash-safe by writing to a temp
// file and renaming it over the target, which the source's plain
// open-write-close does not guarantee.
type Store struct {
	dir   string
	locks sync.Map // aggregateID string -> *sync.Mutex
}

// New returns a Store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("eventstore: create storage dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// CheckWritable reports whether the store's directory currently accepts
// writes, for use as a health check.
func (s *Store) CheckWritable(_ context.Context) error {
	probe, err := os.CreateTemp(s.dir, ".health-*")
	if err != nil {
		return fmt.Errorf("eventstore: directory not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

func (s *Store) lockFor(aggregateID string) *sync.Mutex {
	actual, _ := s.locks.LoadOrStore(aggregateID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// filePath maps an aggregate id to its backing file. ':' cannot appear in a
// filename on some filesystems, so it is replaced the same way the source
// does it.
func (s *Store) filePath(aggregateID string) string {
	safe := strings.ReplaceAll(aggregateID, ":", "_")
	return filepath.Join(s.dir, safe+".json")
}

// Append writes events to the aggregate's log, failing with a
// ConcurrencyConflict error if expectedVersion does not match the log's
// current length. A no-op call (no events) never touches the file or the
// version check.
func (s *Store) Append(ctx context.Context, aggregateID string, events []domain.Event, expectedVersion int) error {
	if len(events) == 0 {
		return nil
	}

	mu := s.lockFor(aggregateID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.loadLocked(aggregateID)
	if err != nil {
		return err
	}

	currentVersion := len(existing)
	if currentVersion != expectedVersion {
		return apperrors.ConcurrencyConflict(
			fmt.Sprintf("version conflict on %s: expected %d, found %d", aggregateID, expectedVersion, currentVersion),
		)
	}

	combined := append(existing, events...)
	return s.writeAtomic(aggregateID, combined)
}

// Load returns the ordered event log for an aggregate. fromVersion, when
// non-nil, excludes events at or below that version (exclusive lower bound,
// matching the source's from_version semantics).
func (s *Store) Load(ctx context.Context, aggregateID string, fromVersion *int) ([]domain.Event, error) {
	events, err := s.loadLocked(aggregateID)
	if err != nil {
		return nil, err
	}

	if fromVersion == nil {
		return events, nil
	}

	filtered := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if e.Version > *fromVersion {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// CurrentVersion returns the number of events persisted for an aggregate,
// which is also its current version since versions are assigned densely
// starting at 1.
func (s *Store) CurrentVersion(ctx context.Context, aggregateID string) (int, error) {
	events, err := s.Load(ctx, aggregateID, nil)
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

func (s *Store) loadLocked(aggregateID string) ([]domain.Event, error) {
	path := s.filePath(aggregateID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Event{}, nil
		}
		return nil, fmt.Errorf("eventstore: read %s: %w", path, err)
	}

	if len(data) == 0 {
		return []domain.Event{}, nil
	}

	var events []domain.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("eventstore: decode %s: %w", path, err)
	}
	return events, nil
}

// writeAtomic marshals the full log and renames a temp file over the
// target, so a crash mid-write never leaves a partially written log.
func (s *Store) writeAtomic(aggregateID string, events []domain.Event) error {
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("eventstore: encode events for %s: %w", aggregateID, err)
	}

	path := s.filePath(aggregateID)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("eventstore: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("eventstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("eventstore: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("eventstore: rename temp file over %s: %w", path, err)
	}

	return nil
}
