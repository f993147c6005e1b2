package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"mmex/internal/core"
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4"))
	SubtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
)

func FormatTitle(s string) string   { return TitleStyle.Render(s) }
func FormatSuccess(s string) string { return SuccessStyle.Render("✓ " + s) }
func FormatWarning(s string) string { return WarningStyle.Render("! " + s) }
func FormatError(s string) string   { return ErrorStyle.Render("✗ " + s) }

// FormatMoney renders negative amounts in the error color.
func FormatMoney(m core.Money) string {
	s := m.String()
	if m.IsNegative() {
		return ErrorStyle.Render(s)
	}
	return s
}

// FormatDue colors a dueness label: overdue red, due today yellow.
func FormatDue(d core.DueInfo) string {
	label := d.Label()
	switch d.Status {
	case core.Overdue:
		return ErrorStyle.Render(label)
	case core.DueToday:
		return WarningStyle.Render(label)
	default:
		return SubtleStyle.Render(label)
	}
}

// Table writes aligned columns with a styled header and a rule beneath it.
type Table struct {
	w       *tabwriter.Writer
	columns int
}

func NewTable(out io.Writer, headers ...string) *Table {
	t := &Table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0), columns: len(headers)}
	styled := make([]string, len(headers))
	rule := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = HeaderStyle.Render(h)
		rule[i] = strings.Repeat("─", max(len(h), 4))
	}
	fmt.Fprintln(t.w, strings.Join(styled, "\t"))
	fmt.Fprintln(t.w, strings.Join(rule, "\t"))
	return t
}

// Row appends one line; missing cells are left blank.
func (t *Table) Row(cells ...any) {
	parts := make([]string, t.columns)
	for i := 0; i < t.columns && i < len(cells); i++ {
		parts[i] = fmt.Sprint(cells[i])
	}
	fmt.Fprintln(t.w, strings.Join(parts, "\t"))
}

func (t *Table) Flush() error {
	return t.w.Flush()
}
