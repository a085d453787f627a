package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/codevault/codevault/pkg/domain"
)

func TestUsersRepository_ProvisionLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewUsersRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db)

	exists, err := repo.ExistsByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("ExistsByEmail() error = %v", err)
	}
	if !exists {
		t.Error("ExistsByEmail() = false for a created user")
	}

	byEmail, err := repo.GetByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if byEmail.ID != user.ID || byEmail.CodeKeyVersion != 1 {
		t.Errorf("GetByEmail() = id %s version %d, want id %s version 1", byEmail.ID, byEmail.CodeKeyVersion, user.ID)
	}

	// Soft deletion hides the user from every lookup.
	if err := repo.SoftDelete(ctx, user.ID); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}
	if _, err := repo.GetByEmail(ctx, user.Email); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("GetByEmail() after soft delete error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByID(ctx, user.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("GetByID() after soft delete error = %v, want ErrUserNotFound", err)
	}
	if exists, err := repo.ExistsByEmail(ctx, user.Email); err != nil || exists {
		t.Errorf("ExistsByEmail() after soft delete = %v, %v; want false, nil", exists, err)
	}

	// A second soft delete finds nothing.
	if err := repo.SoftDelete(ctx, user.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("SoftDelete() twice error = %v, want ErrUserNotFound", err)
	}
}
