package vault

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/codevault/codevault/pkg/domain"
	"github.com/codevault/codevault/pkg/repository"
)

const keyLen = 32

// KeyService owns the per-user rotating signing key. No other component
// reads or writes the stored key except through CurrentKey and Rotate.
type KeyService struct {
	users *repository.UsersRepository
}

// NewKeyService creates a new key service.
func NewKeyService(users *repository.UsersRepository) *KeyService {
	return &KeyService{users: users}
}

// CurrentKey returns the user's current signing key.
func (s *KeyService) CurrentKey(ctx context.Context, userID uuid.UUID) (domain.CodeKey, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.CodeKey{}, err
	}
	return user.Key(), nil
}

// Rotate replaces the user's signing key with a freshly derived one and
// bumps the key version. The update is a single atomic statement, so
// concurrent rotations serialize at the storage level. Rotation is
// irreversible: tokens signed under the previous key stay undecodable,
// no re-encoding pass is performed.
func (s *KeyService) Rotate(ctx context.Context, userID uuid.UUID) (domain.CodeKey, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.CodeKey{}, err
	}

	secret, err := deriveKey(user.Email)
	if err != nil {
		return domain.CodeKey{}, fmt.Errorf("failed to derive key: %w", err)
	}

	version, err := s.users.UpdateCodeKey(ctx, userID, secret)
	if err != nil {
		return domain.CodeKey{}, err
	}

	return domain.CodeKey{Secret: secret, Version: version}, nil
}

// deriveKey expands fresh randomness through HKDF-SHA256, salted with the
// user's stable email and a random UUID. The result is not reversible and
// not predictable from the inputs an attacker can observe.
func deriveKey(email string) (string, error) {
	seed := make([]byte, keyLen)
	if _, err := rand.Read(seed); err != nil {
		return "", err
	}

	kdf := hkdf.New(sha256.New, seed, []byte(email), []byte(uuid.NewString()))
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return "", err
	}

	return hex.EncodeToString(key), nil
}

// NewKey derives an initial signing key for a new user.
func NewKey(email string) (string, error) {
	return deriveKey(email)
}

// NewUser assembles a user record ready for persistence: fresh ID, an
// initial signing key at version 1, and timestamps set to now.
func NewUser(email string, name *string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrEmptyEmail
	}

	key, err := NewKey(email)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	now := time.Now()
	return &domain.User{
		ID:             uuid.New(),
		Email:          email,
		Name:           name,
		CodeKey:        key,
		CodeKeyVersion: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
