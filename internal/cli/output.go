package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/MarkitIt/markitit-xc475/internal/pipeline"
	"github.com/MarkitIt/markitit-xc475/internal/store"
)

// timePrecision keeps run durations readable in text output.
const timePrecision = 10 * time.Millisecond

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// writeReport writes a completed run's summary in the specified format.
func writeReport(w io.Writer, report *pipeline.Report, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, report)
	}

	ids := make([]string, 0, len(report.Sources))
	for id := range report.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		sr := report.Sources[id]
		status := ""
		if sr.Failed {
			status = " [FAILED]"
		}
		fmt.Fprintf(w, "%s: %d scraped, %d new, %d duplicates%s\n",
			id, sr.Scraped, sr.New, sr.Duplicates, status)
	}

	if report.New == 0 {
		fmt.Fprintln(w, "\nNo new events found.")
	} else {
		fmt.Fprintf(w, "\nStored %d new events (%d duplicates skipped) in %s.\n",
			report.New, report.Duplicates, report.Duration.Round(timePrecision))
	}
	return nil
}

// writeDocuments lists the stored events in the specified format.
func writeDocuments(w io.Writer, docs []store.Document, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, docs)
	}

	if len(docs) == 0 {
		fmt.Fprintln(w, "No events stored.")
		return nil
	}

	for _, doc := range docs {
		e := doc.Event
		fmt.Fprintf(w, "%s\n", e.Name)
		fmt.Fprintf(w, "     ID: %s\n", doc.ID)
		fmt.Fprintf(w, "     Key: %s\n", e.IdentityKey)
		if e.Location.City != "" {
			city := e.Location.City
			if e.Location.State != "" {
				city += ", " + e.Location.State
			}
			fmt.Fprintf(w, "     City: %s\n", city)
		}
		if e.Date != "" {
			fmt.Fprintf(w, "     Date: %s\n", e.Date)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d events\n", len(docs))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
