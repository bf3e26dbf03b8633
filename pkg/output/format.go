// Package output provides utilities for formatting and displaying job results.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/calckit/internal/calculator"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, results []calculator.JobResult) {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		fmt.Fprintf(w, "--- Results for job %s (%s) ---\n", result.Name, result.Kind)
		if result.Err != nil {
			fmt.Fprintf(w, "error: %v\n", result.Err)
		} else {
			width := labelWidth(result.Fields)
			for _, field := range result.Fields {
				fmt.Fprintf(w, "%-*s | %s\n", width, field.Label, field.String())
			}
		}

		if len(result.Schedule) > 0 {
			fmt.Fprintf(w, "\nYear | Interest | Principal | End balance\n")
			fmt.Fprintf(w, "____ | ________ | _________ | ___________\n")
			for _, year := range result.Schedule {
				_, _ = p.Fprintf(w, "%d | $%.2f | $%.2f | $%.2f\n",
					year.Year, year.InterestPaid, year.PrincipalPaid, year.EndBalance)
			}
		}

		if i < len(results)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
}

// CsvFormat writes one row per result field in comma-separated value format.
// Yearly schedule rows follow a job's fields.
func CsvFormat(w io.Writer, results []calculator.JobResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"job", "kind", "field", "value"}); err != nil {
		return err
	}

	for _, result := range results {
		if result.Err != nil {
			if err := cw.Write([]string{result.Name, result.Kind, "error", result.Err.Error()}); err != nil {
				return err
			}
			continue
		}
		for _, field := range result.Fields {
			if err := cw.Write([]string{result.Name, result.Kind, field.Label, csvValue(field)}); err != nil {
				return err
			}
		}
		for _, year := range result.Schedule {
			prefix := fmt.Sprintf("Year %d ", year.Year)
			rows := [][]string{
				{result.Name, result.Kind, prefix + "interest", money(year.InterestPaid)},
				{result.Name, result.Kind, prefix + "principal", money(year.PrincipalPaid)},
				{result.Name, result.Kind, prefix + "end balance", money(year.EndBalance)},
			}
			if err := cw.WriteAll(rows); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// CsvString returns CsvFormat's output as a string.
func CsvString(results []calculator.JobResult) (string, error) {
	var sb strings.Builder
	if err := CsvFormat(&sb, results); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// csvValue renders plain numbers without symbols or grouping so the column
// stays machine readable.
func csvValue(field calculator.Field) string {
	switch field.Kind {
	case calculator.Currency:
		return money(field.Value)
	case calculator.Percent:
		return strconv.FormatFloat(field.Value, 'f', 4, 64)
	case calculator.Count:
		return strconv.FormatFloat(field.Value, 'f', 0, 64)
	case calculator.Ohms:
		return strconv.FormatFloat(field.Value, 'f', -1, 64)
	default:
		return field.Text
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func labelWidth(fields []calculator.Field) int {
	width := 0
	for _, field := range fields {
		if len(field.Label) > width {
			width = len(field.Label)
		}
	}
	return width
}
