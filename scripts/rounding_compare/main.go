package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/noah-isme/enlistment-api/internal/models"
	"github.com/noah-isme/enlistment-api/internal/service"
	"github.com/noah-isme/enlistment-api/pkg/export"
)

type comparison struct {
	Units    int
	Labs     int
	Subtotal string
	Strict   string
	Loose    string
}

func (c comparison) differs() bool {
	return c.Strict != c.Loose
}

func main() {
	var (
		maxUnits int
		maxLabs  int
		onlyDiff bool
		csvOut   string
		unitFee  string
		labFee   string
		miscFee  string
		vatRate  string
	)

	flag.IntVar(&maxUnits, "max-units", 30, "Largest unit load to tabulate")
	flag.IntVar(&maxLabs, "max-labs", 5, "Largest laboratory count to tabulate")
	flag.BoolVar(&onlyDiff, "diff", false, "Print only loads where the policies disagree")
	flag.StringVar(&csvOut, "csv", "", "Write the full table as CSV to this path")
	flag.StringVar(&unitFee, "unit-fee", "2345.67", "Fee per unit")
	flag.StringVar(&labFee, "lab-fee", "1234.56", "Fee per laboratory subject")
	flag.StringVar(&miscFee, "misc-fee", "3456.78", "Flat miscellaneous fee")
	flag.StringVar(&vatRate, "vat", "0.12", "VAT rate")
	flag.Parse()

	fees, err := service.ParseFeeSchedule(unitFee, labFee, miscFee, vatRate)
	if err != nil {
		log.Fatalf("invalid fee schedule: %v", err)
	}

	rows := compareAll(fees, maxUnits, maxLabs)
	differing := report(os.Stdout, rows, onlyDiff)

	if csvOut != "" {
		if err := writeCSV(csvOut, rows); err != nil {
			log.Fatalf("failed to write csv: %v", err)
		}
	}

	fmt.Printf("\nSummary: %d loads compared, %d differ\n", len(rows), differing)
	if differing > 0 {
		os.Exit(1)
	}
}

func compareAll(fees service.FeeSchedule, maxUnits, maxLabs int) []comparison {
	rows := make([]comparison, 0, (maxUnits+1)*(maxLabs+1))
	for labs := 0; labs <= maxLabs; labs++ {
		for units := 0; units <= maxUnits; units++ {
			rows = append(rows, compare(fees, units, labs))
		}
	}
	return rows
}

// compare assesses a load of units non-lab units plus labs zero-unit labs.
func compare(fees service.FeeSchedule, units, labs int) comparison {
	subjects := make([]models.Subject, 0, labs+1)
	for i := 0; i < labs; i++ {
		subjects = append(subjects, models.Subject{ID: "LAB" + strconv.Itoa(i), Laboratory: true})
	}
	subjects = append(subjects, models.Subject{ID: "LOAD", Units: units})

	strict := service.CalculateAssessmentWithPolicy(fees, subjects, service.RoundVATThenTotal)
	loose := service.CalculateAssessmentWithPolicy(fees, subjects, service.RoundTotalOnly)
	return comparison{
		Units:    units,
		Labs:     labs,
		Subtotal: strict.Subtotal.StringFixed(2),
		Strict:   strict.Total.StringFixed(2),
		Loose:    loose.Total.StringFixed(2),
	}
}

func report(w io.Writer, rows []comparison, onlyDiff bool) int {
	differing := 0
	fmt.Fprintf(w, "%5s %4s %12s %12s %12s\n", "UNITS", "LABS", "SUBTOTAL", "VAT_FIRST", "TOTAL_ONLY")
	for _, row := range rows {
		if row.differs() {
			differing++
		} else if onlyDiff {
			continue
		}
		marker := ""
		if row.differs() {
			marker = " *"
		}
		fmt.Fprintf(w, "%5d %4d %12s %12s %12s%s\n", row.Units, row.Labs, row.Subtotal, row.Strict, row.Loose, marker)
	}
	return differing
}

func writeCSV(path string, rows []comparison) error {
	dataset := export.Dataset{Headers: []string{"units", "labs", "subtotal", "vat_first_total", "total_only_total"}}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, []string{
			strconv.Itoa(row.Units), strconv.Itoa(row.Labs), row.Subtotal, row.Strict, row.Loose,
		})
	}
	content, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}
