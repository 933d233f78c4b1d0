package repos

import (
	"context"
	"errors"
	"testing"

	"github.com/omniflow/omniflow-backend/internal/repos/testutil"
	"github.com/omniflow/omniflow-backend/internal/types"
	"gorm.io/gorm"
)

func TestUserRepoEmailExists_DistinguishesKnownAndUnknown(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()

	testutil.SeedUser(t, ctx, tx, "exists@test.local")

	exists, err := repo.EmailExists(ctx, tx, "exists@test.local")
	if err != nil {
		t.Fatalf("email exists: %v", err)
	}
	if !exists {
		t.Fatalf("expected seeded email to exist")
	}

	exists, err = repo.EmailExists(ctx, tx, "ghost@test.local")
	if err != nil {
		t.Fatalf("email exists: %v", err)
	}
	if exists {
		t.Fatalf("expected unknown email to be absent")
	}
}

func TestUserRepoGetByEmail_ReturnsUserOrNotFound(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()

	seeded := testutil.SeedUser(t, ctx, tx, "lookup@test.local")

	got, err := repo.GetByEmail(ctx, tx, "lookup@test.local")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != seeded.ID {
		t.Fatalf("expected user %s, got %s", seeded.ID, got.ID)
	}

	if _, err := repo.GetByEmail(ctx, tx, "absent@test.local"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestUserRepoUpdateStatus_SuspendsUser(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()

	user := testutil.SeedUser(t, ctx, tx, "suspend@test.local")
	if err := repo.UpdateStatus(ctx, tx, user.ID, types.UserStatusSuspended); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Status != types.UserStatusSuspended {
		t.Fatalf("expected suspended status, got %q", got.Status)
	}
}

func TestUserRepoDelete_RemovesRowAndCountDrops(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()

	keep := testutil.SeedUser(t, ctx, tx, "delete-keep@test.local")
	gone := testutil.SeedUser(t, ctx, tx, "delete-gone@test.local")

	before, err := repo.Count(ctx, tx)
	if err != nil {
		t.Fatalf("count before: %v", err)
	}

	if err := repo.Delete(ctx, tx, gone.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := repo.GetByID(ctx, tx, gone.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected deleted user to be gone, got %v", err)
	}
	if _, err := repo.GetByID(ctx, tx, keep.ID); err != nil {
		t.Fatalf("expected surviving user, got %v", err)
	}

	after, err := repo.Count(ctx, tx)
	if err != nil {
		t.Fatalf("count after: %v", err)
	}
	if after != before-1 {
		t.Fatalf("expected count to drop from %d to %d, got %d", before, before-1, after)
	}
}
