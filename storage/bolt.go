package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cloudpillar/cloudpillar/types"
)

var scansBucket = []byte("scans")

// BoltStore keeps scan records in a local bbolt file. Used for development
// and the one-shot CLI, where DynamoDB is overkill.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the store at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(scansBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create scans bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close releases the underlying file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Create writes a new scan record.
func (s *BoltStore) Create(ctx context.Context, scan *types.Scan) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket(scansBucket).CreateBucketIfNotExists([]byte(scan.OwnerID))
		if err != nil {
			return fmt.Errorf("failed to create owner bucket: %w", err)
		}
		if bucket.Get([]byte(scan.ID)) != nil {
			return fmt.Errorf("scan %s already exists", scan.ID)
		}
		return putScan(bucket, scan)
	})
}

// Get returns the scan, scoped to its owner.
func (s *BoltStore) Get(ctx context.Context, owner, id string) (*types.Scan, error) {
	var scan *types.Scan
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(scansBucket).Bucket([]byte(owner))
		if bucket == nil {
			return ErrNotFound
		}
		data := bucket.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		scan = &types.Scan{}
		return json.Unmarshal(data, scan)
	})
	if err != nil {
		return nil, err
	}
	return scan, nil
}

// List returns the owner's scans, newest first.
func (s *BoltStore) List(ctx context.Context, owner string) ([]*types.Scan, error) {
	var scans []*types.Scan
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(scansBucket).Bucket([]byte(owner))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, data []byte) error {
			var scan types.Scan
			if err := json.Unmarshal(data, &scan); err != nil {
				return err
			}
			scans = append(scans, &scan)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(scans, func(i, j int) bool {
		return scans[i].CreatedAt.After(scans[j].CreatedAt)
	})
	return scans, nil
}

// MarkRunning transitions a pending scan to running.
func (s *BoltStore) MarkRunning(ctx context.Context, owner, id string) error {
	return s.mutate(owner, id, func(scan *types.Scan) {
		now := time.Now().UTC()
		scan.Status = types.StatusRunning
		scan.StartedAt = &now
	})
}

// UpdateProgress persists forward progress. Progress never moves backward.
func (s *BoltStore) UpdateProgress(ctx context.Context, owner, id string, regionsScanned []string, progress int) error {
	return s.mutate(owner, id, func(scan *types.Scan) {
		if progress > scan.Progress {
			scan.Progress = progress
		}
		scan.RegionsScanned = regionsScanned
	})
}

// AppendRegionResult merges one finished region into the results payload.
func (s *BoltStore) AppendRegionResult(ctx context.Context, owner, id string, result types.RegionResult) error {
	return s.mutate(owner, id, func(scan *types.Scan) {
		if scan.Results == nil {
			scan.Results = make(map[string]types.RegionResult)
		}
		scan.Results[result.Region] = result
	})
}

// Finalize moves the scan to a terminal state.
func (s *BoltStore) Finalize(ctx context.Context, owner, id string, fin Finalization) error {
	return s.mutate(owner, id, func(scan *types.Scan) {
		now := time.Now().UTC()
		scan.Status = fin.Status
		scan.Recommendation = fin.Recommendation
		scan.Warning = fin.Warning
		scan.ErrorMessage = fin.ErrorMessage
		scan.CompletedAt = &now
	})
}

// Delete removes the record.
func (s *BoltStore) Delete(ctx context.Context, owner, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(scansBucket).Bucket([]byte(owner))
		if bucket == nil || bucket.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return bucket.Delete([]byte(id))
	})
}

func (s *BoltStore) mutate(owner, id string, apply func(*types.Scan)) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(scansBucket).Bucket([]byte(owner))
		if bucket == nil {
			return ErrNotFound
		}
		data := bucket.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}

		var scan types.Scan
		if err := json.Unmarshal(data, &scan); err != nil {
			return fmt.Errorf("failed to decode scan %s: %w", id, err)
		}

		apply(&scan)
		scan.UpdatedAt = time.Now().UTC()

		return putScan(bucket, &scan)
	})
}

func putScan(bucket *bolt.Bucket, scan *types.Scan) error {
	data, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("failed to encode scan %s: %w", scan.ID, err)
	}
	return bucket.Put([]byte(scan.ID), data)
}
