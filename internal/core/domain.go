package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnlimitedPayments marks a recurring transaction without a payment count.
const UnlimitedPayments = -1

const (
	Withdrawal TransactionCode = "Withdrawal"
	Deposit    TransactionCode = "Deposit"
	Transfer   TransactionCode = "Transfer"
)

const (
	StatusNone       TransactionStatus = ""
	StatusReconciled TransactionStatus = "R"
	StatusVoid       TransactionStatus = "V"
	StatusFollowUp   TransactionStatus = "F"
	StatusDuplicate  TransactionStatus = "D"
)

const (
	AccountOpen   AccountStatus = "Open"
	AccountClosed AccountStatus = "Closed"
)

type (
	TransactionCode   string
	TransactionStatus string
	AccountStatus     string

	Currency struct {
		ID           int64           `json:"id"`
		Name         string          `json:"name"`
		Symbol       string          `json:"symbol"`
		BaseConvRate decimal.Decimal `json:"base_conv_rate"`
	}

	Account struct {
		ID             int64         `json:"id"`
		Name           string        `json:"name"`
		Type           string        `json:"type"`
		Status         AccountStatus `json:"status"`
		Favorite       bool          `json:"favorite"`
		InitialBalance Money         `json:"initial_balance"`
		CurrencyID     int64         `json:"currency_id"`
	}

	Payee struct {
		ID            int64  `json:"id"`
		Name          string `json:"name"`
		CategoryID    int64  `json:"category_id,omitempty"`
		SubcategoryID int64  `json:"subcategory_id,omitempty"`
	}

	Category struct {
		ID            int64         `json:"id"`
		Name          string        `json:"name"`
		Subcategories []Subcategory `json:"subcategories,omitempty"`
	}

	Subcategory struct {
		ID         int64  `json:"id"`
		CategoryID int64  `json:"category_id"`
		Name       string `json:"name"`
	}

	// Transaction is an entered checking-account transaction.
	Transaction struct {
		ID            int64             `json:"id"`
		AccountID     int64             `json:"account_id"`
		ToAccountID   int64             `json:"to_account_id,omitempty"`
		PayeeID       int64             `json:"payee_id,omitempty"`
		Code          TransactionCode   `json:"code"`
		Amount        Money             `json:"amount"`
		ToAmount      Money             `json:"to_amount"`
		Status        TransactionStatus `json:"status"`
		Number        string            `json:"number,omitempty"`
		Notes         string            `json:"notes,omitempty"`
		CategoryID    int64             `json:"category_id,omitempty"`
		SubcategoryID int64             `json:"subcategory_id,omitempty"`
		Date          time.Time         `json:"date"`
	}

	// RecurringTransaction is a template entered on every payment date.
	// DueDate is the date the bill falls due, PaymentDate the date the
	// transaction will be entered. Both advance by the repeat code.
	RecurringTransaction struct {
		ID            int64             `json:"id"`
		AccountID     int64             `json:"account_id"`
		ToAccountID   int64             `json:"to_account_id,omitempty"`
		PayeeID       int64             `json:"payee_id,omitempty"`
		Code          TransactionCode   `json:"code"`
		Amount        Money             `json:"amount"`
		ToAmount      Money             `json:"to_amount"`
		Status        TransactionStatus `json:"status"`
		Number        string            `json:"number,omitempty"`
		Notes         string            `json:"notes,omitempty"`
		CategoryID    int64             `json:"category_id,omitempty"`
		SubcategoryID int64             `json:"subcategory_id,omitempty"`
		DueDate       time.Time         `json:"due_date"`
		PaymentDate   time.Time         `json:"payment_date"`
		Repeats       RepeatCode        `json:"repeats"`
		PaymentsLeft  int               `json:"payments_left"`
	}
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidRepeatCode     = errors.New("invalid repeat code")
	ErrUnsupportedRecurrence = errors.New("unsupported recurrence")
	ErrInvalidPeriod         = errors.New("invalid period")
	ErrInvalidDateRange      = errors.New("invalid date range")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrInvalidTransaction    = errors.New("invalid transaction")
	ErrInvalidBudget         = errors.New("invalid budget")
	ErrEmptyName             = errors.New("empty name")
	ErrDuplicate             = errors.New("already exists")
	ErrConflict              = errors.New("conflicting update")
	ErrInvalidSetting        = errors.New("invalid setting")
)

func (c TransactionCode) Valid() bool {
	return c == Withdrawal || c == Deposit || c == Transfer
}

// ParseTransactionCode is case-insensitive.
func ParseTransactionCode(s string) (TransactionCode, error) {
	for _, c := range []TransactionCode{Withdrawal, Deposit, Transfer} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown code %q", ErrInvalidTransaction, s)
}

var statusNames = map[TransactionStatus]string{
	StatusNone:       "none",
	StatusReconciled: "reconciled",
	StatusVoid:       "void",
	StatusFollowUp:   "follow-up",
	StatusDuplicate:  "duplicate",
}

// Name returns the human-readable status.
func (s TransactionStatus) Name() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s TransactionStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseStatus accepts either the one-letter code or the status name.
func ParseStatus(s string) (TransactionStatus, error) {
	s = strings.TrimSpace(s)
	if st := TransactionStatus(strings.ToUpper(s)); st.Valid() {
		return st, nil
	}
	for st, name := range statusNames {
		if strings.EqualFold(s, name) {
			return st, nil
		}
	}
	return StatusNone, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (a Account) IsOpen() bool {
	return strings.EqualFold(string(a.Status), string(AccountOpen))
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if a.Status != AccountOpen && a.Status != AccountClosed {
		return fmt.Errorf("invalid account status %q", a.Status)
	}
	return nil
}

func (t Transaction) Validate() error {
	return validateTransfer(t.AccountID, t.ToAccountID, t.PayeeID, t.Code, t.Amount, t.Status)
}

// IsTransfer reports whether the transaction moves money between accounts.
func (t Transaction) IsTransfer() bool { return t.Code == Transfer }

// Signed returns the amount as it affects the given account.
func (t Transaction) Signed(accountID int64) Money {
	switch {
	case t.Status == StatusVoid:
		return Zero
	case t.Code == Deposit && t.AccountID == accountID:
		return t.Amount
	case t.Code == Transfer && t.ToAccountID == accountID:
		return t.ToAmount
	case t.AccountID == accountID:
		return t.Amount.Neg()
	}
	return Zero
}

func validateTransfer(accountID, toAccountID, payeeID int64, code TransactionCode, amount Money, status TransactionStatus) error {
	if accountID <= 0 {
		return fmt.Errorf("%w: account is required", ErrInvalidTransaction)
	}
	if !code.Valid() {
		return fmt.Errorf("%w: unknown code %q", ErrInvalidTransaction, code)
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if code == Transfer {
		if toAccountID <= 0 {
			return fmt.Errorf("%w: transfer needs a destination account", ErrInvalidTransaction)
		}
		if toAccountID == accountID {
			return fmt.Errorf("%w: transfer to the same account", ErrInvalidTransaction)
		}
		return nil
	}
	if payeeID <= 0 {
		return fmt.Errorf("%w: payee is required", ErrInvalidTransaction)
	}
	return nil
}

func (r RecurringTransaction) HasAccountTo() bool { return r.ToAccountID > 0 }
func (r RecurringTransaction) HasPayee() bool     { return r.PayeeID > 0 }
func (r RecurringTransaction) HasCategory() bool  { return r.CategoryID > 0 }

func (r RecurringTransaction) Validate() error {
	if err := validateTransfer(r.AccountID, r.ToAccountID, r.PayeeID, r.Code, r.Amount, r.Status); err != nil {
		return err
	}
	if err := r.Repeats.Validate(); err != nil {
		return err
	}
	if r.PaymentDate.IsZero() {
		return fmt.Errorf("%w: payment date is required", ErrInvalidTransaction)
	}
	if r.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrInvalidTransaction)
	}
	if r.PaymentsLeft != UnlimitedPayments && r.PaymentsLeft < 1 {
		return fmt.Errorf("%w: payments left must be positive or %d", ErrInvalidTransaction, UnlimitedPayments)
	}
	return nil
}

// Instance is the transaction entered for the current payment date.
func (r RecurringTransaction) Instance() Transaction {
	toAmount := r.ToAmount
	if r.Code == Transfer && toAmount.IsZero() {
		toAmount = r.Amount
	}
	return Transaction{
		AccountID:     r.AccountID,
		ToAccountID:   r.ToAccountID,
		PayeeID:       r.PayeeID,
		Code:          r.Code,
		Amount:        r.Amount,
		ToAmount:      toAmount,
		Status:        r.Status,
		Number:        r.Number,
		Notes:         r.Notes,
		CategoryID:    r.CategoryID,
		SubcategoryID: r.SubcategoryID,
		Date:          r.PaymentDate,
	}
}

// Advance moves the template to its next occurrence. finished is true when
// the payment just made was the last one and the template should be removed.
func (r RecurringTransaction) Advance() (next RecurringTransaction, finished bool, err error) {
	if err := r.Repeats.Validate(); err != nil {
		return r, false, err
	}
	if r.Repeats.Base() == Once || r.PaymentsLeft == 1 {
		return r, true, nil
	}
	next = r
	if next.DueDate, err = NextOccurrence(r.DueDate, r.Repeats); err != nil {
		return r, false, err
	}
	if next.PaymentDate, err = NextOccurrence(r.PaymentDate, r.Repeats); err != nil {
		return r, false, err
	}
	if next.PaymentsLeft > 1 {
		next.PaymentsLeft--
	}
	return next, false, nil
}

// IsDue reports whether the payment date has been reached.
func (r RecurringTransaction) IsDue(today time.Time) bool {
	return !DateOf(r.PaymentDate).After(DateOf(today))
}
