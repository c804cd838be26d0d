package models

import (
	"fmt"
	"time"
)

// PostRecord tracks a social post in the ledger so re-runs never post twice
type PostRecord struct {
	Key         string     `boltholdKey:"Key"`              // guid:kind[:n], see PostKey
	EpisodeGUID string     `boltholdIndex:"EpisodeGUID"`
	Kind        PostKind   `boltholdIndex:"Kind"`
	Status      PostStatus `boltholdIndex:"Status"`

	// Tweet IDs returned by the API, main tweet first
	TweetIDs []string
	Error    string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// PostKey builds the ledger key for a post. n is only used for highlights.
func PostKey(guid string, kind PostKind, n int) string {
	if kind == PostKindHighlight {
		return fmt.Sprintf("%s:%s:%d", guid, kind, n)
	}
	return fmt.Sprintf("%s:%s", guid, kind)
}

// EnrichRun records the outcome of one enrichment run
type EnrichRun struct {
	ID         uint64 `boltholdKey:"ID"`
	RunID      string
	StoreFile  string
	Updated    map[Platform]int
	NotFound   map[Platform]int
	Skipped    []Platform
	Saved      bool
	Error      string
	StartedAt  time.Time `boltholdIndex:"StartedAt"`
	FinishedAt time.Time
}
