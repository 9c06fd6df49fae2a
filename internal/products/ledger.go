package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ralt/appget/internal/utils"
)

// Ledger is a JSON file of products installed by strategies that lay files
// down themselves instead of running a vendor installer.
type Ledger struct {
	path string
	mu   sync.Mutex
}

// NewLedger creates a ledger backed by path. The file is created on first write.
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// Name implements Source
func (l *Ledger) Name() string {
	return "ledger:" + l.path
}

// Path returns the backing file
func (l *Ledger) Path() string {
	return l.path
}

// Records implements Source
func (l *Ledger) Records(ctx context.Context) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

func (l *Ledger) read() ([]Record, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", l.path, err)
	}
	return records, nil
}

func (l *Ledger) write(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(l.path)); err != nil {
		return err
	}
	return utils.WriteFileAtomic(l.path, data, 0644)
}

// Put adds rec or replaces the record with the same id. Attributes of the
// previous record that rec does not set are kept.
func (l *Ledger) Put(rec Record) error {
	if rec.ID == "" {
		return errors.New("product record has no id")
	}
	rec.Hive = HiveLedger

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.read()
	if err != nil {
		return err
	}

	for i, existing := range records {
		if !strings.EqualFold(existing.ID, rec.ID) {
			continue
		}
		merged := make(map[string]any, len(existing.Values)+len(rec.Values))
		for k, v := range existing.Values {
			merged[k] = v
		}
		for k, v := range rec.Values {
			merged[k] = v
		}
		rec.Values = merged
		records[i] = rec
		return l.write(records)
	}

	return l.write(append(records, rec))
}

// Remove deletes the record with the given id. Removing an unknown id is not an error.
func (l *Ledger) Remove(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.read()
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, rec := range records {
		if !strings.EqualFold(rec.ID, id) {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return nil
	}
	return l.write(kept)
}
