package repcore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

const (
	// metadataDBFileName is the name of the database file, following
	// the teacher's dbFileName convention (logs_persistant_types.go).
	metadataDBFileName = "repcore.db"

	// metadataBucketName holds one key per partition id, following the
	// teacher's bucketMetadataName convention.
	metadataBucketName = "repcore_replica_metadata"
)

// persistedReplicaState is the durable record kept for a partition:
// enough to reconstruct ballot/status/transient-flag across a process
// restart without needing the mutation log or app snapshot (both out
// of scope, spec §1).
type persistedReplicaState struct {
	Ballot              Ballot `json:"ballot"`
	Status              Status `json:"status"`
	InactiveIsTransient bool   `json:"inactiveIsTransient"`
}

// metadataStore persists per-partition replica metadata in a single
// bbolt bucket, in the shape of the teacher's BoltStore
// (logs_persistant.go / logs_persistant_types.go).
type metadataStore struct {
	db *bolt.DB
}

// openMetadataStore opens (creating if necessary) the metadata store
// under dataDir.
func openMetadataStore(dataDir string) (*metadataStore, error) {
	if dataDir == "" {
		return nil, ErrDataDirRequired
	}
	dbDir := filepath.Join(dataDir, "db")
	if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("fail to create directory %s: %w", dbDir, err)
	}

	db, err := bolt.Open(filepath.Join(dbDir, metadataDBFileName), 0o600, nil)
	if err != nil {
		return nil, err
	}

	store := &metadataStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *metadataStore) init() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(metadataBucketName))
		return err
	})
}

// Close closes the underlying bbolt database.
func (s *metadataStore) Close() error {
	return s.db.Close()
}

// Save persists state for pid, overwriting any prior record.
func (s *metadataStore) Save(pid PartitionId, state persistedReplicaState) error {
	value, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(metadataBucketName))
		return bucket.Put([]byte(pid.String()), value)
	})
}

// Load returns the persisted state for pid, and whether one existed.
func (s *metadataStore) Load(pid PartitionId) (persistedReplicaState, bool, error) {
	var (
		state persistedReplicaState
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(metadataBucketName))
		value := bucket.Get([]byte(pid.String()))
		if value == nil {
			return nil
		}
		found = true
		return json.Unmarshal(value, &state)
	})
	return state, found, err
}
