package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"

	OwedToMe DebtDirection = "OWED_TO_ME"
	OwedByMe DebtDirection = "OWED_BY_ME"
)

type (
	// TransactionType classifies a transaction (and a category) as money in or money out.
	TransactionType string

	// DebtDirection says who owes whom.
	DebtDirection string

	// Transaction is an immutable ledger entry. It is never edited after creation;
	// only bulk user-data clearance removes transactions.
	Transaction struct {
		ID          int64
		UserID      int64
		Amount      decimal.Decimal // non-negative magnitude; Type carries the sign
		Type        TransactionType
		CategoryID  int64
		Description string
		Date        time.Time // when the transaction applies
		CreatedAt   time.Time // when it was recorded
	}

	// Debt is an interpersonal obligation. Paid and PayDate are kept consistent
	// by the lifecycle transitions in the services package: paid implies PayDate
	// is set, unpaid implies it is nil.
	Debt struct {
		ID          int64
		UserID      int64
		PersonName  string
		Amount      decimal.Decimal
		Direction   DebtDirection
		DueDate     time.Time
		PayDate     *time.Time
		Description string
		Paid        bool
		CreatedAt   time.Time
	}

	// Category is a taxonomy entry, seeded at store creation and read-only afterwards.
	Category struct {
		ID        int64
		Name      string
		Type      TransactionType
		Color     string
		Icon      string
		CreatedAt time.Time
	}

	User struct {
		ID           int64
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidDirection = errors.New("invalid debt direction")
	ErrEmptyPersonName  = errors.New("empty person name")
	ErrZeroDate         = errors.New("date cannot be zero")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrShortPassword    = errors.New("password must be at least 6 characters")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (d DebtDirection) Valid() bool {
	return d == OwedToMe || d == OwedByMe
}

func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.PersonName) == "" {
		return ErrEmptyPersonName
	}
	if !d.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !d.Direction.Valid() {
		return ErrInvalidDirection
	}
	if d.DueDate.IsZero() {
		return ErrZeroDate
	}
	if len(d.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// IsOverdue reports whether an unpaid debt is past its due date. Overdue is
// derived on read for display; it never feeds back into the aggregation math.
func (d Debt) IsOverdue(now time.Time) bool {
	return !d.Paid && d.DueDate.Before(now)
}

// ValidateCredentials checks signup input before it reaches the store.
func ValidateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if len(password) < 6 {
		return ErrShortPassword
	}
	return nil
}
