/*
Package history persists a record of each pipeline run to a bbolt-backed
ledger, the same single-bucket JSON-marshaled-value pattern the teacher used
for its cluster state store, scoped down to one bucket and one record type.
*/
package history

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var bucketRuns = []byte("runs")

// Run records one invocation of a pipeline: when it started, where its logs
// landed, and the entrypoints and node labels the planner produced.
type Run struct {
	ID          string            `json:"id"`
	Manifest    string            `json:"manifest"`
	Hostname    string            `json:"hostname"`
	StartedAt   time.Time         `json:"started_at"`
	EndedAt     time.Time         `json:"ended_at,omitempty"`
	LogDir      string            `json:"log_dir"`
	Entrypoints map[string]int    `json:"entrypoints"`
	NodeLabels  map[string]string `json:"node_labels"`
	Err         string            `json:"error,omitempty"`
}

// Store is a bbolt-backed ledger of pipeline runs.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the ledger database under dataDir.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "pipeliner.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRuns)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the ledger database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRun allocates a run ID and records the run's start, returning the
// populated Run for the caller to later pass to Finish.
func (s *Store) NewRun(manifest, hostname, logDir string, entrypoints map[string]int, nodeLabels map[string]string) (*Run, error) {
	run := &Run{
		ID:          uuid.NewString(),
		Manifest:    manifest,
		Hostname:    hostname,
		StartedAt:   time.Now(),
		LogDir:      logDir,
		Entrypoints: entrypoints,
		NodeLabels:  nodeLabels,
	}
	return run, s.put(run)
}

// Finish records a run's end time and, if runErr is non-nil, its error.
func (s *Store) Finish(run *Run, runErr error) error {
	run.EndedAt = time.Now()
	if runErr != nil {
		run.Err = runErr.Error()
	}
	return s.put(run)
}

func (s *Store) put(run *Run) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		data, err := json.Marshal(run)
		if err != nil {
			return err
		}
		return b.Put([]byte(run.ID), data)
	})
}

// Get returns a single run by ID.
func (s *Store) Get(id string) (*Run, error) {
	var run Run
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("run not found: %s", id)
		}
		return json.Unmarshal(data, &run)
	})
	return &run, err
}

// List returns every recorded run, most recently started first.
func (s *Store) List() ([]*Run, error) {
	var runs []*Run
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		return b.ForEach(func(k, v []byte) error {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return err
			}
			runs = append(runs, &run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}
