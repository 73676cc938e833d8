package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SavingsJar is a goal-tracked sub-balance. CurrentAmount is the sum of its deposits.
type SavingsJar struct {
	ID                  uuid.UUID
	UserID              string
	Name                string
	TargetAmount        decimal.Decimal
	CurrentAmount       decimal.Decimal
	IncludeInDisposable bool
	CreatedAt           time.Time
}

// Validate ensures the jar adheres to domain rules
func (j *SavingsJar) Validate() error {
	if strings.TrimSpace(j.UserID) == "" {
		return Invalid("user_id", "is required")
	}
	if strings.TrimSpace(j.Name) == "" {
		return Invalid("name", "jar name cannot be empty")
	}
	if j.TargetAmount.IsNegative() {
		return Invalid("target_amount", "cannot be negative")
	}
	if j.CurrentAmount.IsNegative() {
		return Invalid("current_amount", "cannot be negative")
	}
	return nil
}

// Progress returns the percentage of the target reached, capped at 100
func (j *SavingsJar) Progress() decimal.Decimal {
	if j.TargetAmount.IsZero() {
		return decimal.Zero
	}
	p := j.CurrentAmount.Div(j.TargetAmount).Mul(hundred)
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// SavingsJarCategory is a percentage-of-jar allocation
type SavingsJarCategory struct {
	ID         uuid.UUID
	JarID      uuid.UUID
	Name       string
	Percentage decimal.Decimal
	Color      string
	Icon       string
}

// Validate ensures the category adheres to domain rules
func (c *SavingsJarCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("name", "category name cannot be empty")
	}
	if !isPercentage(c.Percentage) {
		return Invalid("percentage", "must be between 0 and 100")
	}
	return nil
}

// SavingsJarDeposit records money moved from an account into a jar.
// A negative Amount records a withdrawal back to the account.
type SavingsJarDeposit struct {
	ID              uuid.UUID
	JarID           uuid.UUID
	SourceAccountID uuid.UUID
	Amount          decimal.Decimal
	Date            time.Time
	Note            string
	LedgerEntryID   *uuid.UUID
	CreatedAt       time.Time
}
