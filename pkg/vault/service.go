package vault

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codevault/codevault/pkg/domain"
	"github.com/codevault/codevault/pkg/repository"
)

// VaultConfig contains configuration for the vault service.
type VaultConfig struct {
	// GlobalDomainNames enforces name uniqueness across all users instead
	// of per user.
	GlobalDomainNames bool
}

// VaultService manages the lifecycle of domains and their backup codes:
// slot assignment, atomic creation, decoded reads and status transitions.
type VaultService struct {
	config  VaultConfig
	logger  *slog.Logger
	keys    *KeyService
	domains *repository.DomainsRepository
}

// NewVaultService creates a new vault service.
func NewVaultService(config VaultConfig, logger *slog.Logger, keys *KeyService, domains *repository.DomainsRepository) *VaultService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VaultService{
		config:  config,
		logger:  logger,
		keys:    keys,
		domains: domains,
	}
}

// CreateDomain creates a domain and its full code set as one unit. Codes
// get slots 1..n in input order and are encoded with the user's current
// key before anything is persisted, so an encoding failure cannot leave a
// partially populated domain behind.
func (s *VaultService) CreateDomain(ctx context.Context, userID uuid.UUID, name string, rawCodes []string) (*domain.Domain, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	if len(rawCodes) == 0 {
		return nil, domain.ErrNoCodes
	}

	// The name check precedes creation; the storage uniqueness constraint
	// still backstops concurrent creates.
	var exists bool
	var err error
	if s.config.GlobalDomainNames {
		exists, err = s.domains.ExistsByName(ctx, name)
	} else {
		exists, err = s.domains.ExistsByUserAndName(ctx, userID, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check domain name: %w", err)
	}
	if exists {
		return nil, domain.ErrDomainExists
	}

	key, err := s.keys.CurrentKey(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	d := &domain.Domain{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           name,
		TotalCodes:     len(rawCodes),
		RemainingCodes: len(rawCodes),
		CreatedAt:      now,
	}

	codes, err := buildCodes(d.ID, rawCodes, key, now)
	if err != nil {
		return nil, err
	}

	if err := s.domains.CreateWithCodes(ctx, d, codes); err != nil {
		return nil, err
	}

	for _, c := range codes {
		d.Codes = append(d.Codes, *c)
	}

	s.logger.Info("domain created",
		"domain_id", d.ID,
		"user_id", userID,
		"codes", d.TotalCodes,
	)
	return d, nil
}

// buildCodes encodes each raw code and assigns slots in submission order.
func buildCodes(domainID uuid.UUID, rawCodes []string, key domain.CodeKey, now time.Time) ([]*domain.Code, error) {
	codes := make([]*domain.Code, len(rawCodes))
	for i, raw := range rawCodes {
		token, err := EncodeCode(raw, key)
		if err != nil {
			return nil, fmt.Errorf("failed to encode code in slot %d: %w", i+1, err)
		}
		codes[i] = &domain.Code{
			ID:        uuid.New(),
			DomainID:  domainID,
			Slot:      i + 1,
			Token:     token,
			Status:    domain.CodeStatusActive,
			CreatedAt: now,
		}
	}
	return codes, nil
}

// ListDomains returns all of the user's domains with their codes decoded
// using the current key. Read-only; never mutates code status.
func (s *VaultService) ListDomains(ctx context.Context, userID uuid.UUID) ([]domain.DecodedDomain, error) {
	domains, err := s.domains.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(domains) == 0 {
		return []domain.DecodedDomain{}, nil
	}

	key, err := s.keys.CurrentKey(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DecodedDomain, len(domains))
	for i, d := range domains {
		out[i] = domain.DecodedDomain{
			Domain:       d,
			DecodedCodes: DecodeCodes(s.logger, d.Codes, key),
		}
	}
	return out, nil
}

// GetDomain returns one domain with decoded codes ordered by slot
// ascending. A domain owned by another user fails with the same
// ErrDomainNotFound as a nonexistent one.
func (s *VaultService) GetDomain(ctx context.Context, userID, domainID uuid.UUID) (*domain.DecodedDomain, error) {
	d, err := s.domains.FindByUserAndID(ctx, userID, domainID)
	if err != nil {
		return nil, err
	}

	key, err := s.keys.CurrentKey(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.DecodedDomain{
		Domain:       *d,
		DecodedCodes: DecodeCodes(s.logger, d.Codes, key),
	}, nil
}

// UpdateCodeStatus transitions a code's status, scoped by ownership
// through domain and user. Returns the number of affected rows; zero
// means not found or not authorized and is not an error.
func (s *VaultService) UpdateCodeStatus(ctx context.Context, userID, domainID, codeID uuid.UUID, status domain.CodeStatus) (int64, error) {
	if !status.Valid() {
		return 0, domain.ErrInvalidStatus
	}
	return s.domains.UpdateCodeStatus(ctx, userID, domainID, codeID, status)
}

// DeleteDomain removes a domain and, via cascade, all of its codes.
func (s *VaultService) DeleteDomain(ctx context.Context, userID, domainID uuid.UUID) error {
	if err := s.domains.DeleteByUserAndID(ctx, userID, domainID); err != nil {
		return err
	}
	s.logger.Info("domain deleted", "domain_id", domainID, "user_id", userID)
	return nil
}
