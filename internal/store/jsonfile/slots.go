package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"

	"github.com/colonyops/saveslots/internal/core/saves"
)

const (
	slotPrefix  = "slot_"
	slotSuffix  = ".json"
	slotPattern = slotPrefix + "*" + slotSuffix
	lockName    = ".lock"
)

// SlotStore implements saves.Store with one JSON file per slot.
//
// Writes are atomic (temp file + rename) and serialised through a flock on
// <dir>/.lock so several processes can share a directory.
type SlotStore struct {
	dir string
	mu  sync.RWMutex
}

var _ saves.Store = (*SlotStore)(nil)

// NewSlotStore creates the save directory if needed and returns a store
// rooted at it.
func NewSlotStore(dir string) (*SlotStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("save directory must be provided")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save directory: %w", err)
	}

	return &SlotStore{dir: dir}, nil
}

// Dir returns the directory slot files are stored in.
func (s *SlotStore) Dir() string {
	return s.dir
}

// List returns a summary of every slot whose file parses as JSON, ordered by
// slot id. Files that fail to parse are counted as skipped.
func (s *SlotStore) List(ctx context.Context) (saves.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return saves.ListResult{}, err
	}

	unlock, err := s.rlock()
	if err != nil {
		return saves.ListResult{}, err
	}
	defer unlock()

	names, err := doublestar.Glob(os.DirFS(s.dir), slotPattern)
	if err != nil {
		return saves.ListResult{}, fmt.Errorf("scan save directory: %w", err)
	}

	result := saves.ListResult{Saves: make([]saves.Summary, 0, len(names))}
	for _, name := range names {
		id, ok := ParseSlotFile(name)
		if !ok {
			result.Skipped++
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue // removed since the scan
			}
			result.Skipped++
			continue
		}

		summary, err := saves.Summarize(id, data)
		if err != nil {
			result.Skipped++
			continue
		}
		result.Saves = append(result.Saves, summary)
	}

	slices.SortFunc(result.Saves, func(a, b saves.Summary) int {
		return a.ID - b.ID
	})

	return result, nil
}

// Save fully replaces the document stored for id.
func (s *SlotStore) Save(ctx context.Context, id int, doc json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := saves.ValidateSlot(id); err != nil {
		return err
	}

	data, err := saves.Normalize(doc)
	if err != nil {
		return err
	}

	return s.write(id, data)
}

// Get returns the stored document for id.
func (s *SlotStore) Get(ctx context.Context, id int) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := saves.ValidateSlot(id); err != nil {
		return nil, err
	}

	unlock, err := s.rlock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, saves.ErrNotFound
		}
		return nil, fmt.Errorf("read slot %d: %w", id, err)
	}

	if !saves.Valid(data) {
		return nil, fmt.Errorf("slot %d: %w", id, saves.ErrCorrupt)
	}

	return bytes.TrimSpace(data), nil
}

// Delete removes the slot file if it exists.
func (s *SlotStore) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := saves.ValidateSlot(id); err != nil {
		return err
	}

	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete slot %d: %w", id, err)
	}

	return nil
}

// Import parses raw and stores the result. Nothing is written when raw is
// not valid JSON.
func (s *SlotStore) Import(ctx context.Context, id int, raw string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := saves.ValidateSlot(id); err != nil {
		return err
	}

	data, err := saves.ParseImport(raw)
	if err != nil {
		return err
	}

	return s.write(id, data)
}

func (s *SlotStore) write(id int, data []byte) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	path := s.path(id)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write slot %d: %w", id, err)
	}

	// atomic.WriteFile leaves new files with the temp file's 0600 mode.
	if err := os.Chmod(path, 0o644); err != nil {
		return fmt.Errorf("chmod slot %d: %w", id, err)
	}

	return nil
}

func (s *SlotStore) lock() (func(), error) {
	s.mu.Lock()

	fl := flock.New(filepath.Join(s.dir, lockName))
	if err := fl.Lock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("lock save directory: %w", err)
	}

	return func() {
		_ = fl.Unlock()
		s.mu.Unlock()
	}, nil
}

func (s *SlotStore) rlock() (func(), error) {
	s.mu.RLock()

	fl := flock.New(filepath.Join(s.dir, lockName))
	if err := fl.RLock(); err != nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("lock save directory: %w", err)
	}

	return func() {
		_ = fl.Unlock()
		s.mu.RUnlock()
	}, nil
}

func (s *SlotStore) path(id int) string {
	return filepath.Join(s.dir, SlotFileName(id))
}

// SlotFileName returns the file name used to persist slot id.
func SlotFileName(id int) string {
	return slotPrefix + strconv.Itoa(id) + slotSuffix
}

// ParseSlotFile extracts the slot id from a file name written by the store.
// Names that are not in canonical slot_<id>.json form are rejected.
func ParseSlotFile(name string) (int, bool) {
	name = filepath.Base(name)
	if !strings.HasPrefix(name, slotPrefix) || !strings.HasSuffix(name, slotSuffix) {
		return 0, false
	}

	digits := strings.TrimSuffix(strings.TrimPrefix(name, slotPrefix), slotSuffix)
	id, err := strconv.Atoi(digits)
	if err != nil || id < 1 || strconv.Itoa(id) != digits {
		return 0, false
	}

	return id, true
}
