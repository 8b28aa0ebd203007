// Package storage persists the athlete dataset as a single JSON array file.
package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/kapu/ufc-athlete-scraper-go/internal/domain"
	"github.com/kapu/ufc-athlete-scraper-go/pkg/errors"
	"go.uber.org/zap"
)

const jsonIndent = "    "

// JSONStore reads and rewrites the dataset file. The file is replaced atomically on save.
type JSONStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// PersistResult summarises one merge-and-save.
type PersistResult struct {
	Prior int
	Added int
	Total int
}

func NewJSONStore(path string, logger *zap.Logger) *JSONStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONStore{path: path, logger: logger}
}

func (s *JSONStore) Path() string {
	return s.path
}

// Load returns the persisted dataset. A missing file is an empty dataset;
// so is a file that is not a JSON array, which is logged and left to be overwritten by the next save.
// Entries that do not decode as athletes are kept verbatim (see domain.RawAthleteRecord).
func (s *JSONStore) Load() ([]*domain.AthleteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save rewrites the dataset file with records, in order.
func (s *JSONStore) Save(records []*domain.AthleteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(records)
}

// Persist merges fresh into the persisted dataset and writes the result.
// A write failure is the only error that should stop the program.
func (s *JSONStore) Persist(fresh []*domain.AthleteRecord) (PersistResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, err := s.load()
	if err != nil {
		return PersistResult{}, err
	}

	merged, added := Merge(prior, fresh)
	if err := s.save(merged); err != nil {
		return PersistResult{}, err
	}

	result := PersistResult{Prior: len(prior), Added: added, Total: len(merged)}
	s.logger.Info("Dataset saved",
		zap.String("path", s.path),
		zap.Int("prior", result.Prior),
		zap.Int("added", result.Added),
		zap.Int("total", result.Total),
	)
	return result, nil
}

// KnownIDs returns the athlete ids already present in the dataset file.
func (s *JSONStore) KnownIDs() (map[string]struct{}, error) {
	records, err := s.Load()
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(records))
	for _, record := range records {
		if id := record.ID(); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

// Merge appends fresh records to prior, skipping any id that is already present.
// Records without an id cannot be deduplicated and are always appended.
func Merge(prior, fresh []*domain.AthleteRecord) (merged []*domain.AthleteRecord, added int) {
	merged = make([]*domain.AthleteRecord, 0, len(prior)+len(fresh))
	seen := make(map[string]struct{}, len(prior)+len(fresh))

	keep := func(record *domain.AthleteRecord) bool {
		if record == nil {
			return false
		}
		id := record.ID()
		if id == "" {
			return true
		}
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
		return true
	}

	for _, record := range prior {
		if keep(record) {
			merged = append(merged, record)
		}
	}
	for _, record := range fresh {
		if keep(record) {
			merged = append(merged, record)
			added++
		}
	}
	return merged, added
}

// must be called with lock held
func (s *JSONStore) load() ([]*domain.AthleteRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.AthleteRecord{}, nil
		}
		return nil, errors.NewStorageError("failed to read dataset", "load", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []*domain.AthleteRecord{}, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		s.logger.Warn("Existing dataset is not valid JSON, starting empty",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return []*domain.AthleteRecord{}, nil
	}

	records := make([]*domain.AthleteRecord, 0, len(elements))
	for i, element := range elements {
		var record *domain.AthleteRecord
		if err := json.Unmarshal(element, &record); err != nil {
			record = domain.RawAthleteRecord(element)
			s.logger.Warn("Keeping dataset entry as is",
				zap.String("path", s.path),
				zap.Int("index", i),
				zap.String("athlete_id", record.ID()),
				zap.Error(err),
			)
		}
		if record != nil {
			records = append(records, record)
		}
	}
	return records, nil
}

// must be called with lock held
func (s *JSONStore) save(records []*domain.AthleteRecord) error {
	if records == nil {
		records = []*domain.AthleteRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", jsonIndent)
	if err := enc.Encode(records); err != nil {
		return errors.NewStorageError("failed to encode dataset", "save", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewStorageError("failed to create dataset directory", "save", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.NewStorageError("failed to create temp file", "save", s.path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewStorageError("failed to write dataset", "save", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewStorageError("failed to close dataset", "save", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return errors.NewStorageError("failed to set dataset permissions", "save", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errors.NewStorageError("failed to finalize dataset", "save", s.path, err)
	}
	return nil
}
