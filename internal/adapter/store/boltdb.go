package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"assessrag/internal/adapter/index"
	"assessrag/internal/domain"
)

var (
	bucketMeta   = []byte("meta")
	bucketChunks = []byte("chunks")
	bucketIndex  = []byte("index")

	keyGeneration = []byte("generation")
	keyFlatIndex  = []byte("flat")
)

// BoltStore persists one index generation: its chunks, its vectors and the
// metadata needed to decide whether it is still usable.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketMeta, bucketChunks, bucketIndex} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// SaveGeneration replaces the stored generation in a single transaction, so a
// concurrent reader sees either the old generation or the new one.
func (s *BoltStore) SaveGeneration(gen *index.Generation, configHash string) error {
	blob, err := gen.Index.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	info := domain.GenerationInfo{
		ID:         gen.ID,
		Model:      gen.Model,
		Dimension:  gen.Index.Dimension(),
		Chunks:     len(gen.Chunks),
		Documents:  gen.Documents,
		ConfigHash: configHash,
		BuiltAt:    gen.BuiltAt,
	}
	infoData, err := json.Marshal(info)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketChunks); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		chunks, err := tx.CreateBucket(bucketChunks)
		if err != nil {
			return err
		}
		for pos, c := range gen.Chunks {
			data, err := json.Marshal(c)
			if err != nil {
				return err
			}
			if err := chunks.Put(positionKey(pos), data); err != nil {
				return err
			}
		}

		if err := tx.Bucket(bucketIndex).Put(keyFlatIndex, blob); err != nil {
			return err
		}

		meta := tx.Bucket(bucketMeta)
		if err := putSchemaInfo(meta, &SchemaInfo{Version: CurrentSchemaVersion, ConfigHash: configHash}); err != nil {
			return err
		}
		return meta.Put(keyGeneration, infoData)
	})
}

// LoadGeneration rebuilds the stored generation and verifies that its index
// and chunks still line up.
func (s *BoltStore) LoadGeneration() (*index.Generation, error) {
	var (
		info   domain.GenerationInfo
		chunks []domain.Chunk
		idx    *index.FlatIndex
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyGeneration)
		if data == nil {
			return domain.ErrIndexNotBuilt
		}
		if err := json.Unmarshal(data, &info); err != nil {
			return fmt.Errorf("%w: generation metadata: %v", domain.ErrIndexCorruption, err)
		}

		expected := 0
		err := tx.Bucket(bucketChunks).ForEach(func(k, v []byte) error {
			if !bytes.Equal(k, positionKey(expected)) {
				return fmt.Errorf("%w: chunk key %x out of sequence at %d", domain.ErrIndexCorruption, k, expected)
			}
			var c domain.Chunk
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("%w: chunk %d: %v", domain.ErrIndexCorruption, expected, err)
			}
			chunks = append(chunks, c)
			expected++
			return nil
		})
		if err != nil {
			return err
		}

		blob := tx.Bucket(bucketIndex).Get(keyFlatIndex)
		if blob == nil {
			return fmt.Errorf("%w: index blob missing", domain.ErrIndexCorruption)
		}
		// blob is only valid inside the transaction; the decoder copies it
		idx, err = index.UnmarshalIndex(blob)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(chunks) != info.Chunks {
		return nil, fmt.Errorf("%w: metadata records %d chunks, found %d", domain.ErrIndexCorruption, info.Chunks, len(chunks))
	}

	gen, err := index.NewGeneration(chunks, idx)
	if err != nil {
		return nil, err
	}
	gen.ID = info.ID
	gen.Model = info.Model
	gen.Documents = info.Documents
	gen.BuiltAt = info.BuiltAt
	return gen, nil
}

// Info returns the stored generation's metadata without loading it.
func (s *BoltStore) Info() (*domain.GenerationInfo, error) {
	var info domain.GenerationInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyGeneration)
		if data == nil {
			return domain.ErrIndexNotBuilt
		}
		return json.Unmarshal(data, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func positionKey(pos int) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], uint32(pos))
	return k[:]
}
