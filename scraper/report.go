package scraper

import (
	"fmt"
	"io"

	"psxscraper/csvstore"
	"psxscraper/psx"
)

// sampleSize is how many constituents are printed
const sampleSize = 5

// ReportIndex prints the index summary fields or a failure line
func ReportIndex(w io.Writer, index *psx.IndexSummary) {
	if index == nil {
		fmt.Fprintln(w, "Failed to retrieve KSE100 index data")
		return
	}

	fmt.Fprintln(w, "\nKSE100 Index Data:")
	printRecord(w, *index, "")
}

// ReportConstituents prints the constituent count and a sample, or a failure line
func ReportConstituents(w io.Writer, constituents []psx.Constituent) {
	if len(constituents) == 0 {
		fmt.Fprintln(w, "Failed to retrieve KSE100 constituents data")
		return
	}

	fmt.Fprintf(w, "\nKSE100 Constituents: %d companies found\n", len(constituents))
	for i, company := range constituents {
		if i == sampleSize {
			fmt.Fprintln(w, "... and more companies")
			break
		}
		fmt.Fprintf(w, "\nCompany %d:\n", i+1)
		printRecord(w, company, "  ")
	}
}

// printRecord prints one "Column: value" line per field using the CSV column names
func printRecord(w io.Writer, record any, indent string) {
	header, err := csvstore.Header(record)
	if err != nil {
		return
	}
	values, err := csvstore.Values(record)
	if err != nil {
		return
	}
	for i, name := range header {
		fmt.Fprintf(w, "%s%s: %s\n", indent, name, values[i])
	}
}
