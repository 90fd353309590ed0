package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"docqa/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

// MetricCosine is the only similarity metric the store supports.
const MetricCosine = "cosine"

var keyFingerprint = []byte("fingerprint")

func readFingerprint(tx *bbolt.Tx) (domain.Fingerprint, bool, error) {
	var fp domain.Fingerprint
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return fp, false, nil
	}
	data := b.Get(keyFingerprint)
	if data == nil {
		return fp, false, nil
	}
	if err := json.Unmarshal(data, &fp); err != nil {
		return fp, false, fmt.Errorf("failed to decode fingerprint: %w", err)
	}
	return fp, true, nil
}

func writeFingerprint(tx *bbolt.Tx, fp domain.Fingerprint) error {
	data, err := json.Marshal(fp)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put(keyFingerprint, data)
}

// MigrationResult describes whether a stored index can be reused.
type MigrationResult struct {
	NeedsRebuild bool
	Reason       string
}

// CheckFingerprint compares a stored fingerprint with the embedder that will
// query it. An expected dimension of 0 matches any stored dimension.
func CheckFingerprint(stored domain.Fingerprint, model string, dimension int) MigrationResult {
	switch {
	case stored.SchemaVersion > CurrentSchemaVersion:
		return MigrationResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("index created by newer version (v%d > v%d)", stored.SchemaVersion, CurrentSchemaVersion),
		}
	case stored.Metric != "" && stored.Metric != MetricCosine:
		return MigrationResult{NeedsRebuild: true, Reason: fmt.Sprintf("unsupported metric %q", stored.Metric)}
	case model != "" && stored.EmbeddingModel != model:
		return MigrationResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("embedding model changed from %q to %q", stored.EmbeddingModel, model),
		}
	case dimension > 0 && stored.Dimension != dimension:
		return MigrationResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("embedding dimension changed from %d to %d", stored.Dimension, dimension),
		}
	}
	return MigrationResult{}
}
