package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/omniflow/omniflow-backend/internal/repos/testutil"
	"github.com/omniflow/omniflow-backend/internal/types"
)

func TestSearchLogRepoListZeroResult_FiltersHitsOut(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewSearchLogRepo(db, testutil.Logger(t))
	ctx := context.Background()

	logs := []*types.SearchLog{
		{ID: uuid.New(), Query: "quantum kettle", ResultsCount: 0},
		{ID: uuid.New(), Query: "left-handed mug", ResultsCount: 0},
		{ID: uuid.New(), Query: "desk lamp", ResultsCount: 7},
	}
	if _, err := repo.Create(ctx, tx, logs); err != nil {
		t.Fatalf("create search logs: %v", err)
	}

	got, err := repo.ListZeroResult(ctx, tx, 10)
	if err != nil {
		t.Fatalf("list zero result: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 zero-result queries, got %d", len(got))
	}
	for _, entry := range got {
		if entry.ResultsCount != 0 {
			t.Fatalf("query %q had %d results", entry.Query, entry.ResultsCount)
		}
	}
}

func TestSearchLogRepoListZeroResult_RespectsLimit(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewSearchLogRepo(db, testutil.Logger(t))
	ctx := context.Background()

	var logs []*types.SearchLog
	for i := 0; i < 5; i++ {
		logs = append(logs, &types.SearchLog{ID: uuid.New(), Query: "missing item", ResultsCount: 0})
	}
	if _, err := repo.Create(ctx, tx, logs); err != nil {
		t.Fatalf("create search logs: %v", err)
	}

	got, err := repo.ListZeroResult(ctx, tx, 3)
	if err != nil {
		t.Fatalf("list zero result: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(got))
	}
}
