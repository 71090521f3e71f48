package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/law-makers/lotwatch/internal/app"
	"github.com/law-makers/lotwatch/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// reportJSON is the --json shape of one search run.
type reportJSON struct {
	SearchID            string `json:"searchId"`
	Query               string `json:"query"`
	RunID               string `json:"runId,omitempty"`
	InitialLotCount     int    `json:"initialLotCount"`
	NewLotCount         int    `json:"newLotCount"`
	Ignored             int    `json:"ignored"`
	MissingRequirements int    `json:"missingRequirements"`
	Errors              int    `json:"errors"`
	AlreadyKnown        int    `json:"alreadyKnown"`
	ExecutionTimeMs     int64  `json:"executionTimeMs"`
	Error               string `json:"error,omitempty"`
}

func toReportJSON(r app.Report) reportJSON {
	out := reportJSON{SearchID: r.Search.ID, Query: r.Search.Query, RunID: r.Run.ID}
	if r.Result != nil {
		out.InitialLotCount = r.Result.InitialLotCount
		out.NewLotCount = r.Result.NewLotCount
		out.Ignored = r.Result.IgnoredCount
		out.MissingRequirements = r.Result.MissingRequirementsCount
		out.Errors = r.Result.LotErrors
		out.AlreadyKnown = r.Result.AlreadyKnownCount
		out.ExecutionTimeMs = r.Result.ExecutionTime.Milliseconds()
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

// printReports writes a summary of each search run.
func printReports(w io.Writer, jsonOut, quiet bool, reports []app.Report) error {
	if jsonOut {
		out := make([]reportJSON, len(reports))
		for i, r := range reports {
			out[i] = toReportJSON(r)
		}
		return printJSON(w, out)
	}
	if quiet {
		return nil
	}

	for _, r := range reports {
		name := r.Search.DisplayName()
		if r.Err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", ui.Error("✗"), ui.Bold(name), r.Err)
			continue
		}
		res := r.Result
		fmt.Fprintf(w, "%s %s: %s new of %d candidates (%d known, %d ignored, %d missing requirements, %d errors) in %s\n",
			ui.Success("✓"), ui.Bold(name),
			ui.Success(fmt.Sprint(res.NewLotCount)), res.InitialLotCount,
			res.AlreadyKnownCount, res.IgnoredCount, res.MissingRequirementsCount, res.LotErrors,
			res.ExecutionTime.Round(time.Millisecond))
		for _, lot := range res.Lots {
			fmt.Fprintf(w, "    %s  %s  %s\n", ui.Info(lot.LotNumber), lot.Title, lot.URL)
		}
	}
	return nil
}
