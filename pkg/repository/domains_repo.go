package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/codevault/codevault/pkg/domain"
)

const pqUniqueViolation = "23505"

// DomainsRepository handles persistence of domains and their backup codes.
type DomainsRepository struct {
	db *sql.DB
}

// NewDomainsRepository creates a new domains repository.
func NewDomainsRepository(db *sql.DB) *DomainsRepository {
	return &DomainsRepository{db: db}
}

// CreateWithCodes inserts a domain and all of its codes in a single
// transaction. A partial failure leaves nothing visible to readers. A
// uniqueness violation on the domain name surfaces as ErrDomainExists.
func (r *DomainsRepository) CreateWithCodes(ctx context.Context, d *domain.Domain, codes []*domain.Code) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	domainQuery := `
		INSERT INTO vault_domains (id, user_id, name, total_codes, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, domainQuery,
		d.ID, d.UserID, d.Name, d.TotalCodes, d.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDomainExists
		}
		return fmt.Errorf("failed to insert domain: %w", err)
	}

	codeQuery := `
		INSERT INTO vault_codes (id, domain_id, slot, token, status, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	stmt, err := tx.PrepareContext(ctx, codeQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, code := range codes {
		if _, err := stmt.ExecContext(ctx,
			code.ID, code.DomainID, code.Slot, code.Token, code.Status, code.UsedAt, code.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert code: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDomainExists
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ExistsByName checks if any user already owns a domain with this name.
func (r *DomainsRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM vault_domains WHERE name = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, name).Scan(&exists)
	return exists, err
}

// ExistsByUserAndName checks if the user already owns a domain with this name.
func (r *DomainsRepository) ExistsByUserAndName(ctx context.Context, userID uuid.UUID, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM vault_domains WHERE user_id = $1 AND name = $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, name).Scan(&exists)
	return exists, err
}

// FindAllByUser retrieves all domains for a user, codes included.
// RemainingCodes is computed from the live status of each domain's codes.
func (r *DomainsRepository) FindAllByUser(ctx context.Context, userID uuid.UUID) ([]domain.Domain, error) {
	query := `
		SELECT d.id, d.user_id, d.name, d.total_codes, d.created_at,
		       COUNT(c.id) FILTER (WHERE c.status = 'active') AS remaining_codes
		FROM vault_domains d
		LEFT JOIN vault_codes c ON c.domain_id = d.id
		WHERE d.user_id = $1
		GROUP BY d.id
		ORDER BY d.created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query domains: %w", err)
	}
	defer rows.Close()

	var domains []domain.Domain
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var d domain.Domain
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.TotalCodes, &d.CreatedAt, &d.RemainingCodes); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		index[d.ID] = len(domains)
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(domains) == 0 {
		return domains, nil
	}

	codeQuery := `
		SELECT c.id, c.domain_id, c.slot, c.token, c.status, c.used_at, c.created_at
		FROM vault_codes c
		JOIN vault_domains d ON d.id = c.domain_id
		WHERE d.user_id = $1
		ORDER BY c.domain_id, c.slot
	`
	codeRows, err := r.db.QueryContext(ctx, codeQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query codes: %w", err)
	}
	defer codeRows.Close()

	for codeRows.Next() {
		var c domain.Code
		if err := codeRows.Scan(&c.ID, &c.DomainID, &c.Slot, &c.Token, &c.Status, &c.UsedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan code: %w", err)
		}
		if i, ok := index[c.DomainID]; ok {
			domains[i].Codes = append(domains[i].Codes, c)
		}
	}
	if err := codeRows.Err(); err != nil {
		return nil, err
	}

	return domains, nil
}

// FindByUserAndID retrieves one domain owned by the user, codes ordered by
// slot ascending. A domain owned by someone else looks exactly like a
// missing one.
func (r *DomainsRepository) FindByUserAndID(ctx context.Context, userID, domainID uuid.UUID) (*domain.Domain, error) {
	query := `
		SELECT d.id, d.user_id, d.name, d.total_codes, d.created_at,
		       COUNT(c.id) FILTER (WHERE c.status = 'active') AS remaining_codes
		FROM vault_domains d
		LEFT JOIN vault_codes c ON c.domain_id = d.id
		WHERE d.user_id = $1 AND d.id = $2
		GROUP BY d.id
	`
	d := &domain.Domain{}
	err := r.db.QueryRowContext(ctx, query, userID, domainID).Scan(
		&d.ID, &d.UserID, &d.Name, &d.TotalCodes, &d.CreatedAt, &d.RemainingCodes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDomainNotFound
	}
	if err != nil {
		return nil, err
	}

	codeQuery := `
		SELECT id, domain_id, slot, token, status, used_at, created_at
		FROM vault_codes
		WHERE domain_id = $1
		ORDER BY slot
	`
	rows, err := r.db.QueryContext(ctx, codeQuery, domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to query codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Code
		if err := rows.Scan(&c.ID, &c.DomainID, &c.Slot, &c.Token, &c.Status, &c.UsedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan code: %w", err)
		}
		d.Codes = append(d.Codes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return d, nil
}

// UpdateCodeStatus updates a single code's status, scoped through the
// domain's owner. used_at is stamped on the first transition to used and
// preserved on idempotent re-marks; any other status clears it. Returns
// the number of affected rows; zero means not found or not authorized,
// deliberately indistinguishable.
func (r *DomainsRepository) UpdateCodeStatus(ctx context.Context, userID, domainID, codeID uuid.UUID, status domain.CodeStatus) (int64, error) {
	query := `
		UPDATE vault_codes c
		SET status = $4,
		    used_at = CASE WHEN $4 = 'used' THEN COALESCE(c.used_at, NOW()) ELSE NULL END
		FROM vault_domains d
		WHERE c.id = $3
		  AND c.domain_id = $2
		  AND d.id = c.domain_id
		  AND d.user_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, userID, domainID, codeID, status)
	if err != nil {
		return 0, fmt.Errorf("failed to update code status: %w", err)
	}
	return result.RowsAffected()
}

// DeleteByUserAndID removes a domain owned by the user. Its codes are
// removed by the ON DELETE CASCADE constraint.
func (r *DomainsRepository) DeleteByUserAndID(ctx context.Context, userID, domainID uuid.UUID) error {
	query := `DELETE FROM vault_domains WHERE id = $2 AND user_id = $1`
	result, err := r.db.ExecContext(ctx, query, userID, domainID)
	if err != nil {
		return fmt.Errorf("failed to delete domain: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrDomainNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
