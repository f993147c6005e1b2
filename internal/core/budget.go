package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MinBudgetYear is the earliest year a budget can be created for.
const MinBudgetYear = 2000

type (
	// Budget is named after the period it covers: "2024" for a yearly
	// budget, "2024-05" for a monthly one.
	Budget struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	BudgetFrequency string

	// BudgetEntry is the estimate for one category or subcategory.
	// Expenses are negative amounts, income positive.
	BudgetEntry struct {
		ID            int64           `json:"id"`
		BudgetID      int64           `json:"budget_id"`
		CategoryID    int64           `json:"category_id"`
		SubcategoryID int64           `json:"subcategory_id,omitempty"`
		Frequency     BudgetFrequency `json:"frequency"`
		Amount        Money           `json:"amount"`
	}
)

const (
	BudgetNone       BudgetFrequency = "None"
	BudgetDaily      BudgetFrequency = "Daily"
	BudgetWeekly     BudgetFrequency = "Weekly"
	BudgetBiWeekly   BudgetFrequency = "Bi-Weekly"
	BudgetMonthly    BudgetFrequency = "Monthly"
	BudgetBiMonthly  BudgetFrequency = "Bi-Monthly"
	BudgetQuarterly  BudgetFrequency = "Quarterly"
	BudgetHalfYearly BudgetFrequency = "Half-Yearly"
	BudgetYearly     BudgetFrequency = "Yearly"
)

var periodsPerYear = map[BudgetFrequency]int64{
	BudgetNone:       0,
	BudgetDaily:      365,
	BudgetWeekly:     52,
	BudgetBiWeekly:   26,
	BudgetMonthly:    12,
	BudgetBiMonthly:  6,
	BudgetQuarterly:  4,
	BudgetHalfYearly: 2,
	BudgetYearly:     1,
}

// ParseBudgetFrequency is case-insensitive.
func ParseBudgetFrequency(s string) (BudgetFrequency, error) {
	for f := range periodsPerYear {
		if strings.EqualFold(strings.TrimSpace(s), string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown frequency %q", ErrInvalidBudget, s)
}

// BudgetName formats the name of a budget. month is 0 for a yearly budget.
func BudgetName(year, month int) (string, error) {
	if year < MinBudgetYear || year > 9999 {
		return "", fmt.Errorf("%w: year %d must be between %d and 9999", ErrInvalidBudget, year, MinBudgetYear)
	}
	if month < 0 || month > 12 {
		return "", fmt.Errorf("%w: month %d must be between 1 and 12", ErrInvalidBudget, month)
	}
	if month == 0 {
		return strconv.Itoa(year), nil
	}
	return fmt.Sprintf("%04d-%02d", year, month), nil
}

// ParseBudgetName is the inverse of BudgetName.
func ParseBudgetName(name string) (year, month int, err error) {
	parts := strings.Split(strings.TrimSpace(name), "-")
	if len(parts) > 2 {
		return 0, 0, fmt.Errorf("%w: name %q", ErrInvalidBudget, name)
	}
	for _, part := range parts {
		if part == "" || strings.Trim(part, "0123456789") != "" {
			return 0, 0, fmt.Errorf("%w: name %q", ErrInvalidBudget, name)
		}
	}
	if year, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("%w: name %q", ErrInvalidBudget, name)
	}
	if len(parts) == 2 {
		if month, err = strconv.Atoi(parts[1]); err != nil || month == 0 {
			return 0, 0, fmt.Errorf("%w: name %q", ErrInvalidBudget, name)
		}
	}
	if _, err := BudgetName(year, month); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// CanonicalBudgetName parses name and returns it in BudgetName form, so
// "2024-5" becomes "2024-05".
func CanonicalBudgetName(name string) (string, error) {
	year, month, err := ParseBudgetName(name)
	if err != nil {
		return "", err
	}
	return BudgetName(year, month)
}

// IsMonthly reports whether the budget covers a single month.
func (b Budget) IsMonthly() bool {
	_, month, err := ParseBudgetName(b.Name)
	return err == nil && month > 0
}

// Range is the date range the budget covers.
func (b Budget) Range() (DateRange, error) {
	year, month, err := ParseBudgetName(b.Name)
	if err != nil {
		return DateRange{}, err
	}
	if month == 0 {
		return YearRange(year), nil
	}
	return MonthRange(year, time.Month(month)), nil
}

// Estimate scales the entry to the budget's length: the yearly total, or a
// twelfth of it for monthly budgets.
func (e BudgetEntry) Estimate(monthly bool) Money {
	yearly := e.Amount.Mul(decimal.NewFromInt(periodsPerYear[e.Frequency]))
	if monthly {
		return yearly.Div(12)
	}
	return yearly
}

func (e BudgetEntry) Validate() error {
	if e.CategoryID <= 0 {
		return fmt.Errorf("%w: category is required", ErrInvalidBudget)
	}
	if _, ok := periodsPerYear[e.Frequency]; !ok {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidBudget, e.Frequency)
	}
	return nil
}
