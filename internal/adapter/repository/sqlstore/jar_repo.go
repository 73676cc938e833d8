package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/moneyjar/internal/domain"
)

// jarRepository implements domain.SavingsJarRepository
type jarRepository struct {
	c conn
}

const jarColumns = `id, user_id, name, target_amount, current_amount, include_in_disposable, created_at`

func scanJar(s scanner) (*domain.SavingsJar, error) {
	var (
		j       domain.SavingsJar
		created string
	)
	if err := s.Scan(
		&j.ID,
		&j.UserID,
		&j.Name,
		&j.TargetAmount,
		&j.CurrentAmount,
		&j.IncludeInDisposable,
		&created,
	); err != nil {
		return nil, err
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	j.CreatedAt = t
	return &j, nil
}

// GetByID retrieves a savings jar by its ID
func (r *jarRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.SavingsJar, error) {
	query := `SELECT ` + jarColumns + ` FROM savings_jars WHERE id = ? AND user_id = ?`

	j, err := scanJar(r.c.queryRow(ctx, query, id, userID))
	if err != nil {
		return nil, noRows(err, domain.NotFound("savings jar", id), "get savings jar by ID")
	}
	return j, nil
}

// List retrieves the user's jars ordered by creation time
func (r *jarRepository) List(ctx context.Context, userID string) ([]*domain.SavingsJar, error) {
	query := `SELECT ` + jarColumns + ` FROM savings_jars WHERE user_id = ? ORDER BY created_at, id`

	rows, err := r.c.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings jars: %w", err)
	}
	return collect(rows, scanJar)
}

// Create creates a new savings jar
func (r *jarRepository) Create(ctx context.Context, j *domain.SavingsJar) error {
	query := `
		INSERT INTO savings_jars (` + jarColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.c.exec(ctx, query,
		j.ID,
		j.UserID,
		j.Name,
		j.TargetAmount.String(),
		j.CurrentAmount.String(),
		j.IncludeInDisposable,
		formatTime(j.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create savings jar: %w", err)
	}
	return nil
}

// Update persists every mutable field of the jar
func (r *jarRepository) Update(ctx context.Context, j *domain.SavingsJar) error {
	query := `
		UPDATE savings_jars SET name = ?, target_amount = ?, current_amount = ?, include_in_disposable = ?
		WHERE id = ? AND user_id = ?
	`
	return r.c.execOne(ctx, "update savings jar", domain.NotFound("savings jar", j.ID), query,
		j.Name,
		j.TargetAmount.String(),
		j.CurrentAmount.String(),
		j.IncludeInDisposable,
		j.ID,
		j.UserID,
	)
}

// Delete removes a jar and its categories. Deposit records are kept.
func (r *jarRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, userID, id); err != nil {
		return err
	}
	if _, err := r.c.exec(ctx, `DELETE FROM savings_jar_categories WHERE jar_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete savings jar categories: %w", err)
	}
	return r.c.execOne(ctx, "delete savings jar", domain.NotFound("savings jar", id),
		`DELETE FROM savings_jars WHERE id = ? AND user_id = ?`, id, userID)
}

func scanJarCategory(s scanner) (*domain.SavingsJarCategory, error) {
	var c domain.SavingsJarCategory
	if err := s.Scan(
		&c.ID,
		&c.JarID,
		&c.Name,
		&c.Percentage,
		&c.Color,
		&c.Icon,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories retrieves the jar's categories ordered by name
func (r *jarRepository) ListCategories(ctx context.Context, jarID uuid.UUID) ([]*domain.SavingsJarCategory, error) {
	query := `
		SELECT id, jar_id, name, percentage, color, icon
		FROM savings_jar_categories
		WHERE jar_id = ?
		ORDER BY name, id
	`
	rows, err := r.c.query(ctx, query, jarID)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings jar categories: %w", err)
	}
	return collect(rows, scanJarCategory)
}

// SaveCategory inserts the category or updates it when the ID already exists
func (r *jarRepository) SaveCategory(ctx context.Context, c *domain.SavingsJarCategory) error {
	query := `
		INSERT INTO savings_jar_categories (id, jar_id, name, percentage, color, icon)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			percentage = excluded.percentage,
			color = excluded.color,
			icon = excluded.icon
		WHERE savings_jar_categories.jar_id = excluded.jar_id
	`
	return r.c.execOne(ctx, "save savings jar category", domain.NotFound("savings jar category", c.ID), query,
		c.ID,
		c.JarID,
		c.Name,
		c.Percentage.String(),
		c.Color,
		c.Icon,
	)
}

// DeleteCategory removes a category of the jar
func (r *jarRepository) DeleteCategory(ctx context.Context, jarID, id uuid.UUID) error {
	return r.c.execOne(ctx, "delete savings jar category", domain.NotFound("savings jar category", id),
		`DELETE FROM savings_jar_categories WHERE id = ? AND jar_id = ?`, id, jarID)
}

// CreateDeposit records a deposit or, with a negative amount, a withdrawal
func (r *jarRepository) CreateDeposit(ctx context.Context, d *domain.SavingsJarDeposit) error {
	query := `
		INSERT INTO savings_jar_deposits (id, jar_id, source_account_id, amount, date, note, ledger_entry_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.c.exec(ctx, query,
		d.ID,
		d.JarID,
		d.SourceAccountID,
		d.Amount.String(),
		formatTime(d.Date),
		d.Note,
		nullUUID(d.LedgerEntryID),
		formatTime(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create savings jar deposit: %w", err)
	}
	return nil
}

// ListDeposits retrieves the jar's deposits ordered by date
func (r *jarRepository) ListDeposits(ctx context.Context, jarID uuid.UUID) ([]*domain.SavingsJarDeposit, error) {
	query := `
		SELECT id, jar_id, source_account_id, amount, date, note, ledger_entry_id, created_at
		FROM savings_jar_deposits
		WHERE jar_id = ?
		ORDER BY date, created_at, id
	`
	rows, err := r.c.query(ctx, query, jarID)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings jar deposits: %w", err)
	}
	return collect(rows, func(s scanner) (*domain.SavingsJarDeposit, error) {
		var (
			d             domain.SavingsJarDeposit
			entryID       uuid.NullUUID
			date, created string
		)
		if err := s.Scan(&d.ID, &d.JarID, &d.SourceAccountID, &d.Amount, &date, &d.Note, &entryID, &created); err != nil {
			return nil, err
		}
		var err error
		if d.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		if d.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		d.LedgerEntryID = uuidPtr(entryID)
		return &d, nil
	})
}
