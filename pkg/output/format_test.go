package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/iwvelando/calckit/internal/calculator"
	"github.com/iwvelando/calckit/pkg/loans"
)

func sampleResults() []calculator.JobResult {
	return []calculator.JobResult{
		{
			Name: "Mortgage",
			Kind: "amortization",
			Fields: []calculator.Field{
				{Label: "Monthly payment", Value: 886.7018, Kind: calculator.Currency},
				{Label: "Payments", Value: 360, Kind: calculator.Count},
			},
			Schedule: []loans.YearRow{
				{Year: 1, InterestPaid: 7826.56, PrincipalPaid: 2813.86, EndBalance: 172186.14},
			},
		},
		{
			Name: "Divider",
			Kind: "resistors",
			Fields: []calculator.Field{
				{Label: "Equivalent", Value: 4700, Kind: calculator.Ohms},
				{Label: "Rate", Value: 6.67061, Kind: calculator.Percent},
				{Label: "Missing resistor", Kind: calculator.Text, Text: "target unreachable, try series"},
			},
		},
		{
			Name: "Broken",
			Kind: "drywall",
			Err:  errors.New("no drywall prices for sheet size \"5x9\""),
		},
	}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	PrettyFormat(&buf, sampleResults())
	output := buf.String()

	for _, want := range []string{
		"--- Results for job Mortgage (amortization) ---",
		"Monthly payment | $886.70",
		"Payments        | 360",
		"Year | Interest | Principal | End balance",
		"1 | $7,826.56 | $2,813.86 | $172,186.14",
		"--- Results for job Divider (resistors) ---",
		"4.7 kΩ",
		"6.671%",
		"error: no drywall prices",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat output missing %q\n%s", want, output)
		}
	}
}

func TestPrettyFormatEmptyResults(t *testing.T) {
	var buf bytes.Buffer
	PrettyFormat(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output for no results, got %q", buf.String())
	}
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, sampleResults()); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	expected := []string{
		"job,kind,field,value",
		"Mortgage,amortization,Monthly payment,886.70",
		"Mortgage,amortization,Payments,360",
		"Mortgage,amortization,Year 1 interest,7826.56",
		"Mortgage,amortization,Year 1 principal,2813.86",
		"Mortgage,amortization,Year 1 end balance,172186.14",
		"Divider,resistors,Equivalent,4700",
		"Divider,resistors,Rate,6.6706",
		`Divider,resistors,Missing resistor,"target unreachable, try series"`,
		`Broken,drywall,error,"no drywall prices for sheet size ""5x9"""`,
	}
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(expected), len(lines), buf.String())
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("line %d = %q, expected %q", i, lines[i], expected[i])
		}
	}
}

func TestCsvStringMatchesCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, sampleResults()); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}
	s, err := CsvString(sampleResults())
	if err != nil {
		t.Fatalf("CsvString() error = %v", err)
	}
	if s != buf.String() {
		t.Errorf("CsvString() differs from CsvFormat()")
	}
}

func TestCsvFormatEmptyResults(t *testing.T) {
	s, err := CsvString(nil)
	if err != nil {
		t.Fatalf("CsvString() error = %v", err)
	}
	if s != "job,kind,field,value\n" {
		t.Errorf("expected only the header, got %q", s)
	}
}
