package models

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned when a ledger record does not exist
var ErrNotFound = bolthold.ErrNotFound

// Database wraps the bolthold store holding the post ledger and run history
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Post ledger operations

// GetPost retrieves a ledger entry by key
func (db *Database) GetPost(key string) (*PostRecord, error) {
	var rec PostRecord
	if err := db.store.Get(key, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// BeginPost records the intent to post before the API is called.
// A completed entry is never overwritten.
func (db *Database) BeginPost(guid string, kind PostKind, n int) (*PostRecord, error) {
	key := PostKey(guid, kind, n)

	existing, err := db.GetPost(key)
	if err != nil && !errors.Is(err, bolthold.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == PostStatusCompleted {
		return existing, nil
	}

	now := time.Now()
	rec := &PostRecord{
		Key:         key,
		EpisodeGUID: guid,
		Kind:        kind,
		Status:      PostStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if existing != nil {
		rec.CreatedAt = existing.CreatedAt
	}

	if err := db.store.Upsert(key, rec); err != nil {
		return nil, fmt.Errorf("failed to record post intent: %w", err)
	}
	return rec, nil
}

// CompletePost marks a ledger entry as posted
func (db *Database) CompletePost(key string, tweetIDs []string) error {
	rec, err := db.GetPost(key)
	if err != nil {
		return err
	}

	now := time.Now()
	rec.Status = PostStatusCompleted
	rec.TweetIDs = tweetIDs
	rec.Error = ""
	rec.UpdatedAt = now
	rec.CompletedAt = &now
	return db.store.Update(key, rec)
}

// FailPost marks a ledger entry as failed so it can be retried
func (db *Database) FailPost(key string, cause error) error {
	rec, err := db.GetPost(key)
	if err != nil {
		return err
	}

	rec.Status = PostStatusFailed
	rec.Error = cause.Error()
	rec.UpdatedAt = time.Now()
	return db.store.Update(key, rec)
}

// GetPostsByStatus retrieves all ledger entries with a specific status
func (db *Database) GetPostsByStatus(status PostStatus) ([]*PostRecord, error) {
	var recs []*PostRecord
	err := db.store.Find(&recs, bolthold.Where("Status").Eq(status))
	return recs, err
}

// GetPostsByEpisode retrieves all ledger entries for an episode
func (db *Database) GetPostsByEpisode(guid string) ([]*PostRecord, error) {
	var recs []*PostRecord
	err := db.store.Find(&recs, bolthold.Where("EpisodeGUID").Eq(guid))
	return recs, err
}

// DeletePost removes a ledger entry
func (db *Database) DeletePost(key string) error {
	return db.store.Delete(key, &PostRecord{})
}

// Enrichment run history

// CreateEnrichRun stores the outcome of an enrichment run
func (db *Database) CreateEnrichRun(run *EnrichRun) error {
	return db.store.Insert(bolthold.NextSequence(), run)
}

// GetLatestEnrichRun retrieves the most recent enrichment run
func (db *Database) GetLatestEnrichRun() (*EnrichRun, error) {
	runs, err := db.GetRecentEnrichRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, bolthold.ErrNotFound
	}
	return runs[0], nil
}

// GetRecentEnrichRuns retrieves up to limit runs, newest first
func (db *Database) GetRecentEnrichRuns(limit int) ([]*EnrichRun, error) {
	var runs []*EnrichRun
	if err := db.store.Find(&runs, nil); err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
