package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"assessrag/config"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var (
	keySchemaVersion = []byte("schema_version")
	keyConfigHash    = []byte("config_hash")
)

// SchemaInfo stores schema version and configuration hash.
type SchemaInfo struct {
	Version    int    `json:"version"`
	ConfigHash string `json:"config_hash"`
}

// GetSchemaInfo retrieves the current schema info from the database. An
// empty database reports version 0.
func (s *BoltStore) GetSchemaInfo() (*SchemaInfo, error) {
	var info SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}

		if versionData := b.Get(keySchemaVersion); versionData != nil {
			if err := json.Unmarshal(versionData, &info.Version); err != nil {
				return fmt.Errorf("decode schema version: %w", err)
			}
		}
		if hashData := b.Get(keyConfigHash); hashData != nil {
			info.ConfigHash = string(hashData)
		}
		return nil
	})
	return &info, err
}

func putSchemaInfo(b *bbolt.Bucket, info *SchemaInfo) error {
	versionData, err := json.Marshal(info.Version)
	if err != nil {
		return err
	}
	if err := b.Put(keySchemaVersion, versionData); err != nil {
		return err
	}
	return b.Put(keyConfigHash, []byte(info.ConfigHash))
}

// ComputeConfigHash computes a hash of the settings that shape chunk
// boundaries and vectors. Changes to this hash mean the stored generation
// must be rebuilt.
func ComputeConfigHash(cfg *config.Config) string {
	relevant := struct {
		WindowSize int    `json:"window_size"`
		Overlap    int    `json:"overlap"`
		Provider   string `json:"provider"`
		Model      string `json:"model"`
		Dimension  int    `json:"dimension"`
	}{
		WindowSize: cfg.Chunk.WindowSize,
		Overlap:    cfg.Chunk.Overlap,
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		Dimension:  cfg.Embedding.Dimension,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// CompatResult describes whether the stored generation can serve queries
// under the current configuration.
type CompatResult struct {
	NeedsRebuild bool
	OldVersion   int
	NewVersion   int
	Reason       string
}

// CheckCompat compares the stored schema version and config hash with cfg.
func (s *BoltStore) CheckCompat(cfg *config.Config) (*CompatResult, error) {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema info: %w", err)
	}

	result := &CompatResult{
		OldVersion: info.Version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case info.Version == 0:
		result.NeedsRebuild = true
		result.Reason = "no index built"
	case info.Version != CurrentSchemaVersion:
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("index schema v%d, this build reads v%d", info.Version, CurrentSchemaVersion)
	case info.ConfigHash != ComputeConfigHash(cfg):
		result.NeedsRebuild = true
		result.Reason = "index configuration changed"
	}

	return result, nil
}
