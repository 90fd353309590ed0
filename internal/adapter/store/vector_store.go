package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime/debug"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.VectorStore = (*BoltVectorStore)(nil)

// BoltVectorStore implements VectorStore using BoltDB for persistence.
// Every vector is kept in memory and searched by brute force. The database
// file is created on the first Add.
type BoltVectorStore struct {
	path   string
	model  string
	logger *slog.Logger

	mu          sync.RWMutex
	db          *bbolt.DB
	dimension   int
	fingerprint domain.Fingerprint
	hasPrint    bool
	entries     []vectorEntry
}

type vectorEntry struct {
	vector   []float32
	text     string
	metadata map[string]string
}

type storedVector struct {
	Vector   []float32         `json:"v"`
	Text     string            `json:"t"`
	Metadata map[string]string `json:"m,omitempty"`
}

// NewBoltVectorStore loads the index at path if one exists. The index is
// cleared when it was built by a different embedding model or dimension. A
// file that cannot be read is moved aside and the store starts empty; only a
// lock held by another process is an error.
func NewBoltVectorStore(path, model string, dimension int, logger *slog.Logger) (*BoltVectorStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	newStore := func() *BoltVectorStore {
		return &BoltVectorStore{
			path:      path,
			model:     model,
			dimension: dimension,
			logger:    logger,
		}
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return newStore(), nil
		}
		return nil, err
	}

	s := newStore()
	err := s.openAndLoad()
	if err == nil {
		logger.Debug("index loaded", "path", path, "vectors", len(s.entries))
		return s, nil
	}
	if errors.Is(err, bbolt.ErrTimeout) {
		return nil, fmt.Errorf("index %s is locked by another process: %w", path, err)
	}
	if err := quarantine(path, err, logger); err != nil {
		return nil, err
	}
	return newStore(), nil
}

// openAndLoad opens the existing file and reads it into memory. bbolt panics
// on damaged freelist and data pages; those panics come back as errors.
func (s *BoltVectorStore) openAndLoad() (err error) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("index file is damaged: %v", r)
		}
		if err != nil && s.db != nil {
			closeQuietly(s.db)
			s.db = nil
		}
	}()

	s.db, err = openBolt(s.path)
	if err != nil {
		return err
	}
	if err := s.load(); err != nil {
		return fmt.Errorf("failed to load vectors: %w", err)
	}
	return nil
}

// load reads the fingerprint and all vectors into memory.
func (s *BoltVectorStore) load() error {
	var rebuild MigrationResult

	err := s.db.View(func(tx *bbolt.Tx) error {
		fp, ok, err := readFingerprint(tx)
		if err != nil {
			rebuild = MigrationResult{NeedsRebuild: true, Reason: err.Error()}
			return nil
		}
		if ok {
			rebuild = CheckFingerprint(fp, s.model, s.dimension)
			if rebuild.NeedsRebuild {
				return nil
			}
			s.fingerprint = fp
			s.hasPrint = true
			s.dimension = fp.Dimension
		}

		b := tx.Bucket(bucketVectors)
		skipped := 0
		err = b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				skipped++
				return nil
			}
			s.entries = append(s.entries, vectorEntry{
				vector:   stored.Vector,
				text:     stored.Text,
				metadata: stored.Metadata,
			})
			return nil
		})
		if skipped > 0 {
			s.logger.Warn("skipped unreadable index entries", "path", s.path, "count", skipped)
		}
		return err
	})
	if err != nil {
		return err
	}

	if rebuild.NeedsRebuild {
		s.logger.Warn("index rebuild required, discarding stored vectors", "path", s.path, "reason", rebuild.Reason)
		s.entries = nil
		return clearBuckets(s.db)
	}
	return nil
}

// Add appends records in a single transaction. Nothing is kept when any
// record is rejected.
func (s *BoltVectorStore) Add(items []port.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dimension := s.dimension
	if dimension == 0 {
		dimension = len(items[0].Vector)
	}
	for i, item := range items {
		if len(item.Vector) != dimension || dimension == 0 {
			return fmt.Errorf("%w: item %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, i, len(item.Vector), dimension)
		}
	}

	if s.db == nil {
		db, err := openBolt(s.path)
		if err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
		s.db = db
	}

	fp := domain.Fingerprint{
		SchemaVersion:  CurrentSchemaVersion,
		EmbeddingModel: s.model,
		Dimension:      dimension,
		Metric:         MetricCosine,
	}

	added := make([]vectorEntry, 0, len(items))
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if !s.hasPrint {
			if err := writeFingerprint(tx, fp); err != nil {
				return err
			}
		}

		b := tx.Bucket(bucketVectors)
		for _, item := range items {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			data, err := json.Marshal(storedVector{
				Vector:   item.Vector,
				Text:     item.Text,
				Metadata: item.Metadata,
			})
			if err != nil {
				return err
			}
			if err := b.Put(sequenceKey(seq), data); err != nil {
				return err
			}
			added = append(added, vectorEntry{
				vector:   item.Vector,
				text:     item.Text,
				metadata: item.Metadata,
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist vectors: %w", err)
	}

	if !s.hasPrint {
		s.fingerprint = fp
		s.hasPrint = true
	}
	s.dimension = dimension
	s.entries = append(s.entries, added...)
	return nil
}

// Search finds the k nearest vectors to the query using cosine similarity.
// Ties keep insertion order.
func (s *BoltVectorStore) Search(query []float32, k int) ([]port.VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), s.dimension)
	}

	return searchEntries(s.entries, query, k), nil
}

func (s *BoltVectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *BoltVectorStore) Fingerprint() (domain.Fingerprint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fingerprint, s.hasPrint
}

// Reset closes the database and deletes the index file. Calling it on an
// index that does not exist is not an error.
func (s *BoltVectorStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("failed to close index: %w", err)
		}
		s.db = nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete index: %w", err)
	}

	s.entries = nil
	s.fingerprint = domain.Fingerprint{}
	s.hasPrint = false
	s.logger.Info("index deleted", "path", s.path)
	return nil
}

func (s *BoltVectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func searchEntries(entries []vectorEntry, query []float32, k int) []port.VectorResult {
	type scored struct {
		idx   int
		score float64
	}

	scores := make([]scored, len(entries))
	for i, entry := range entries {
		scores[i] = scored{idx: i, score: CosineSimilarity(query, entry.vector)}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}

	results := make([]port.VectorResult, k)
	for i := 0; i < k; i++ {
		entry := entries[scores[i].idx]
		results[i] = port.VectorResult{
			Text:     entry.text,
			Metadata: entry.metadata,
			Score:    scores[i].score,
		}
	}
	return results
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
