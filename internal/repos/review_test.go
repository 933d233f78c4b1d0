package repos

import (
	"context"
	"testing"

	"github.com/omniflow/omniflow-backend/internal/repos/testutil"
)

func TestReviewRepoListByProduct_ScopesToProduct(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewReviewRepo(db, testutil.Logger(t))
	ctx := context.Background()

	author := testutil.SeedUser(t, ctx, tx, "reviewer@test.local")
	reviewed := testutil.SeedProduct(t, ctx, tx, "Reviewed Kettle", 45)
	other := testutil.SeedProduct(t, ctx, tx, "Other Kettle", 50)

	testutil.SeedReview(t, ctx, tx, reviewed.ID, author.ID, 5, "Boils fast")
	testutil.SeedReview(t, ctx, tx, reviewed.ID, author.ID, 3, "Handle gets warm")
	testutil.SeedReview(t, ctx, tx, other.ID, author.ID, 1, "Arrived dented")

	got, err := repo.ListByProduct(ctx, tx, reviewed.ID, 10)
	if err != nil {
		t.Fatalf("list by product: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(got))
	}
	for _, r := range got {
		if r.ProductID != reviewed.ID {
			t.Fatalf("review %s belongs to product %s", r.ID, r.ProductID)
		}
	}
}

func TestReviewRepoCreate_DuplicateSubmissionsBothStored(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewReviewRepo(db, testutil.Logger(t))
	ctx := context.Background()

	author := testutil.SeedUser(t, ctx, tx, "repeat-reviewer@test.local")
	product := testutil.SeedProduct(t, ctx, tx, "Popular Lamp", 80)

	testutil.SeedReview(t, ctx, tx, product.ID, author.ID, 4, "Nice glow")
	testutil.SeedReview(t, ctx, tx, product.ID, author.ID, 4, "Nice glow")

	got, err := repo.ListByProduct(ctx, tx, product.ID, 10)
	if err != nil {
		t.Fatalf("list by product: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected duplicate reviews to both persist, got %d", len(got))
	}
}
