package http

import (
	"time"

	"mmex/internal/core"
	"mmex/internal/services"
)

// Dates travel as YYYY-MM-DD strings in both directions.

type transactionRequest struct {
	AccountID     int64      `json:"account_id"`
	ToAccountID   int64      `json:"to_account_id"`
	PayeeID       int64      `json:"payee_id"`
	Code          string     `json:"code"`
	Amount        core.Money `json:"amount"`
	ToAmount      core.Money `json:"to_amount"`
	Status        string     `json:"status"`
	Number        string     `json:"number"`
	Notes         string     `json:"notes"`
	CategoryID    int64      `json:"category_id"`
	SubcategoryID int64      `json:"subcategory_id"`
	Date          string     `json:"date"`
}

func (req transactionRequest) toCore() (core.Transaction, error) {
	code, err := core.ParseTransactionCode(req.Code)
	if err != nil {
		return core.Transaction{}, err
	}
	status, err := core.ParseStatus(req.Status)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		AccountID:     req.AccountID,
		ToAccountID:   req.ToAccountID,
		PayeeID:       req.PayeeID,
		Code:          code,
		Amount:        req.Amount,
		ToAmount:      req.ToAmount,
		Status:        status,
		Number:        sanitizeInput(req.Number),
		Notes:         sanitizeInput(req.Notes),
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Date:          date,
	}, nil
}

type transactionView struct {
	ID            int64      `json:"id"`
	AccountID     int64      `json:"account_id"`
	ToAccountID   int64      `json:"to_account_id,omitempty"`
	PayeeID       int64      `json:"payee_id,omitempty"`
	Code          string     `json:"code"`
	Amount        core.Money `json:"amount"`
	ToAmount      core.Money `json:"to_amount"`
	Status        string     `json:"status"`
	Number        string     `json:"number,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CategoryID    int64      `json:"category_id,omitempty"`
	SubcategoryID int64      `json:"subcategory_id,omitempty"`
	Date          string     `json:"date,omitempty"`
}

func newTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:            t.ID,
		AccountID:     t.AccountID,
		ToAccountID:   t.ToAccountID,
		PayeeID:       t.PayeeID,
		Code:          string(t.Code),
		Amount:        t.Amount,
		ToAmount:      t.ToAmount,
		Status:        t.Status.Name(),
		Number:        t.Number,
		Notes:         t.Notes,
		CategoryID:    t.CategoryID,
		SubcategoryID: t.SubcategoryID,
		Date:          core.FormatDate(t.Date),
	}
}

type recurringRequest struct {
	transactionRequest
	DueDate      string `json:"due_date"`
	PaymentDate  string `json:"payment_date"`
	Repeats      int    `json:"repeats"`
	PaymentsLeft int    `json:"payments_left"`
}

func (req recurringRequest) toCore(id int64) (core.RecurringTransaction, error) {
	tx, err := req.transactionRequest.toCore()
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	due, err := optionalDate(req.DueDate)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	payment, err := optionalDate(req.PaymentDate)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	return core.RecurringTransaction{
		ID:            id,
		AccountID:     tx.AccountID,
		ToAccountID:   tx.ToAccountID,
		PayeeID:       tx.PayeeID,
		Code:          tx.Code,
		Amount:        tx.Amount,
		ToAmount:      tx.ToAmount,
		Status:        tx.Status,
		Number:        tx.Number,
		Notes:         tx.Notes,
		CategoryID:    tx.CategoryID,
		SubcategoryID: tx.SubcategoryID,
		DueDate:       due,
		PaymentDate:   payment,
		Repeats:       core.RepeatCode(req.Repeats),
		PaymentsLeft:  req.PaymentsLeft,
	}, nil
}

type recurringView struct {
	transactionView
	DueDate      string `json:"due_date"`
	PaymentDate  string `json:"payment_date"`
	Repeats      int    `json:"repeats"`
	PaymentsLeft int    `json:"payments_left"`
	Frequency    string `json:"frequency"`
	AutoExecute  string `json:"auto_execute"`
	Due          string `json:"due,omitempty"`
}

func newRecurringView(rt core.RecurringTransaction) recurringView {
	v := recurringView{
		transactionView: newTransactionView(rt.Instance()),
		DueDate:         core.FormatDate(rt.DueDate),
		PaymentDate:     core.FormatDate(rt.PaymentDate),
		Repeats:         int(rt.Repeats),
		PaymentsLeft:    rt.PaymentsLeft,
		Frequency:       rt.Repeats.String(),
		AutoExecute:     rt.Repeats.Mode().String(),
	}
	v.ID = rt.ID
	v.Date = ""
	return v
}

func newRecurringListingView(l services.RecurringListing) recurringView {
	v := newRecurringView(l.RecurringTransaction)
	v.Due = l.Due.Label()
	return v
}

type enterRequest struct {
	Amount core.Money `json:"amount"`
	Date   string     `json:"date"`
}

type enterView struct {
	TransactionID int64          `json:"transaction_id,omitempty"`
	Date          string         `json:"date"`
	Finished      bool           `json:"finished"`
	Next          *recurringView `json:"next,omitempty"`
}

func newEnterView(res services.EnterResult) enterView {
	v := enterView{TransactionID: res.TransactionID, Date: core.FormatDate(res.Date), Finished: res.Finished}
	if res.Next != nil {
		next := newRecurringView(*res.Next)
		v.Next = &next
	}
	return v
}

type processView struct {
	Entered []enteredView   `json:"entered"`
	Pending []recurringView `json:"pending"`
	Failed  int             `json:"failed"`
}

type enteredView struct {
	RecurringID   int64  `json:"recurring_id"`
	TransactionID int64  `json:"transaction_id"`
	Date          string `json:"date"`
	Finished      bool   `json:"finished"`
}

func newProcessView(res services.ProcessResult) processView {
	v := processView{Entered: []enteredView{}, Pending: []recurringView{}, Failed: res.Failed}
	for _, e := range res.Entered {
		v.Entered = append(v.Entered, enteredView{e.RecurringID, e.TransactionID, core.FormatDate(e.Date), e.Finished})
	}
	for _, p := range res.Pending {
		v.Pending = append(v.Pending, newRecurringListingView(p))
	}
	return v
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, core.FormatDate(d))
	}
	return out
}

type budgetRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type entryRequest struct {
	CategoryID    int64      `json:"category_id"`
	SubcategoryID int64      `json:"subcategory_id"`
	Frequency     string     `json:"frequency"`
	Amount        core.Money `json:"amount"`
}

type accountRequest struct {
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	Favorite       bool       `json:"favorite"`
	InitialBalance core.Money `json:"initial_balance"`
	CurrencyID     int64      `json:"currency_id"`
}

type categoryRequest struct {
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id"`
}
