package domain

import (
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportingCurrency is the currency every aggregate figure is expressed in
const ReportingCurrency = "TWD"

// Account represents a place money is held
// Balance is always denominated in Currency
type Account struct {
	ID             uuid.UUID
	UserID         string
	Type           string // free text, e.g. "TWD", "US Stocks"
	Name           string
	Balance        decimal.Decimal
	Currency       string
	ExchangeRate   decimal.Decimal // to the reporting currency, defaults to 1
	IncludeInTotal bool
	CreatedAt      time.Time
}

// Validate ensures the account adheres to domain rules
func (a *Account) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return Invalid("user_id", "is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return Invalid("name", "account name cannot be empty")
	}
	if !IsKnownCurrency(a.Currency) {
		return Invalid("currency", "unknown currency code "+a.Currency)
	}
	if a.ExchangeRate.LessThanOrEqual(decimal.Zero) {
		return Invalid("exchange_rate", "must be positive")
	}
	return nil
}

// Normalize fills defaults before persisting a new account
func (a *Account) Normalize() {
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	if a.Currency == "" {
		a.Currency = ReportingCurrency
	}
	if a.ExchangeRate.IsZero() {
		a.ExchangeRate = decimal.NewFromInt(1)
	}
	if a.Type == "" {
		a.Type = a.Currency
	}
}

// IsKnownCurrency reports whether code is an ISO 4217 code known to go-money
func IsKnownCurrency(code string) bool {
	if code == "" {
		return false
	}
	return money.GetCurrency(code) != nil
}

// FormatAmount renders an amount with the currency's symbol and fraction digits
func FormatAmount(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}

// RoundToCurrency rounds amount to the currency's minor unit (2 digits when unknown)
func RoundToCurrency(amount decimal.Decimal, code string) decimal.Decimal {
	if cur := money.GetCurrency(code); cur != nil {
		return amount.Round(int32(cur.Fraction))
	}
	return amount.Round(2)
}
