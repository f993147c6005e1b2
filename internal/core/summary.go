package core

import "time"

// ReportRow is one line of a grouped report. ID is the payee or category id,
// zero for transactions without one.
type ReportRow struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Withdrawals Money  `json:"withdrawals"`
	Deposits    Money  `json:"deposits"`
	Total       Money  `json:"total"`
	Count       int    `json:"count"`
}

// Report is a grouped report over a date range.
type Report struct {
	Kind  string      `json:"kind"`
	From  string      `json:"from,omitempty"`
	To    string      `json:"to,omitempty"`
	Rows  []ReportRow `json:"rows"`
	Total Money       `json:"total"`
}

// MonthTotals is income against expenses for one calendar month.
type MonthTotals struct {
	Year       int        `json:"year"`
	Month      time.Month `json:"month"`
	Income     Money      `json:"income"`
	Expenses   Money      `json:"expenses"`
	Difference Money      `json:"difference"`
}

// AccountBalance is an account with its balance in its own currency and in
// the base currency.
type AccountBalance struct {
	Account     Account `json:"account"`
	Balance     Money   `json:"balance"`
	BaseBalance Money   `json:"base_balance"`
}

// AccountSummary totals the visible accounts in the base currency.
type AccountSummary struct {
	Accounts []AccountBalance `json:"accounts"`
	Total    Money            `json:"total"`
}

// BudgetLine compares a budget estimate with what was actually spent.
type BudgetLine struct {
	CategoryID    int64  `json:"category_id"`
	SubcategoryID int64  `json:"subcategory_id,omitempty"`
	Name          string `json:"name"`
	Estimated     Money  `json:"estimated"`
	Actual        Money  `json:"actual"`
	Difference    Money  `json:"difference"`
}

// BudgetPerformance is the budget-versus-actual report of one budget.
type BudgetPerformance struct {
	Budget Budget       `json:"budget"`
	From   string       `json:"from"`
	To     string       `json:"to"`
	Lines  []BudgetLine `json:"lines"`
}
