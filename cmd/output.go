package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/s0up4200/tokenmgmt/models"
)

// leadingColumns are shown first, in this order, when present
var leadingColumns = []string{
	"id",
	"token_number",
	"name",
	"title",
	"username",
	"status",
	models.FieldLocationID,
	models.FieldServicePointID,
	models.FieldCategoryID,
	models.FieldCustomerName,
	models.FieldCreatedAt,
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// printer renders API results in the selected output format
type printer struct {
	w      io.Writer
	format string
}

func newPrinter(cmd *cobra.Command) *printer {
	return &printer{w: cmd.OutOrStdout(), format: outputFormat}
}

// Payload renders an unwrapped response. Arrays of objects become a table,
// objects a field/value table, anything else is printed as is.
func (p *printer) Payload(v models.Payload) error {
	if p.format == "json" {
		return p.json(v)
	}

	if v.IsNull() {
		fmt.Fprintln(p.w, mutedStyle.Render("(empty)"))
		return nil
	}
	if recs, ok := v.Records(); ok {
		p.records(recs)
		return nil
	}
	if rec, ok := v.Record(); ok {
		p.record(rec)
		return nil
	}
	if items, ok := v.Raw().([]any); ok {
		rows := make([][]string, 0, len(items))
		for _, item := range items {
			rows = append(rows, []string{cell(item)})
		}
		fmt.Fprintln(p.w, newTable([]string{"VALUE"}, rows))
		return nil
	}

	fmt.Fprintln(p.w, cell(v.Raw()))
	return nil
}

// Records renders a list of records, used after client-side filtering
func (p *printer) Records(recs []models.Record) error {
	if p.format == "json" {
		if recs == nil {
			recs = []models.Record{}
		}
		return p.json(recs)
	}
	p.records(recs)
	return nil
}

// Token renders a single token
func (p *printer) Token(t *models.Token) error {
	return p.Payload(models.NewPayload(map[string]any(t.Record())))
}

// Success prints a confirmation line. It is suppressed for JSON output.
func (p *printer) Success(format string, args ...any) {
	if p.format == "json" {
		return
	}
	fmt.Fprintln(p.w, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) records(recs []models.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(p.w, mutedStyle.Render("No records found."))
		return
	}

	columns := columnsOf(recs...)
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = cell(rec[col])
		}
		rows = append(rows, row)
	}

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = strings.ToUpper(col)
	}

	fmt.Fprintln(p.w, newTable(headers, rows))
	fmt.Fprintln(p.w, mutedStyle.Render(fmt.Sprintf("%d %s", len(recs), plural(len(recs), "record", "records"))))
}

func (p *printer) record(rec models.Record) {
	columns := columnsOf(rec)
	rows := make([][]string, 0, len(columns))
	for _, col := range columns {
		rows = append(rows, []string{col, cell(rec[col])})
	}
	fmt.Fprintln(p.w, newTable([]string{"FIELD", "VALUE"}, rows))
}

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
}

// columnsOf returns the union of keys of recs, leading columns first and
// the rest sorted
func columnsOf(recs ...models.Record) []string {
	seen := make(map[string]bool)
	var rest []string
	for _, rec := range recs {
		for key := range rec {
			if !seen[key] {
				seen[key] = true
				if !slices.Contains(leadingColumns, key) {
					rest = append(rest, key)
				}
			}
		}
	}
	slices.Sort(rest)

	columns := make([]string, 0, len(seen))
	for _, key := range leadingColumns {
		if seen[key] {
			columns = append(columns, key)
		}
	}
	return append(columns, rest...)
}

// cell formats a single value for table output
func cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool, int, int64, float64:
		return fmt.Sprint(val)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
