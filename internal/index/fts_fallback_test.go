//go:build !sqlite_fts5

package index

import (
	"context"
	"testing"
)

func TestSearch_LikeEscaping(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertFile(row("/data/100%_done.txt", false))
	_ = db.UpsertFile(row("/data/100x.txt", false))

	results, err := db.Search(context.Background(), "100%", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %+v, want only the literal match", results)
	}
}
