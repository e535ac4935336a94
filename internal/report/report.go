// Package report prints the outcome of a non-interactive prediction run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"cellscan/internal/predict"
	"cellscan/pkg/utils"
)

// Run is one batch submitted to the service.
type Run struct {
	Server   string           `json:"server"`
	Started  time.Time        `json:"started"`
	Duration time.Duration    `json:"-"`
	Results  []predict.Result `json:"results"`
	Counts   predict.Counts   `json:"counts"`
}

// NewRun tallies results into a Run.
func NewRun(server string, started time.Time, results []predict.Result) *Run {
	return &Run{
		Server:   server,
		Started:  started,
		Duration: time.Since(started),
		Results:  results,
		Counts:   predict.Tally(results),
	}
}

// WriteText prints a plain table, one result per line.
func WriteText(w io.Writer, run *Run, maxName int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "cellscan predict\nserver: %s\nimages: %d\n", run.Server, len(run.Results))
	b.WriteString("----------------------------------------------\n")
	for _, r := range run.Results {
		fmt.Fprintf(&b, "%-*s\t%-11s\t%6.2f%%\t%s\n",
			maxName, utils.TruncateFilename(r.Filename, maxName), r.Label, r.Confidence, r.Explanation())
	}
	b.WriteString("----------------------------------------------\n")
	fmt.Fprintf(&b, "Parasitized: %d  Uninfected: %d\n", run.Counts.Parasitized, run.Counts.Uninfected)
	fmt.Fprintf(&b, "Duration: %s\n", run.Duration.Round(time.Millisecond))
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON prints the run as indented JSON.
func WriteJSON(w io.Writer, run *Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	payload := struct {
		*Run
		Duration string `json:"duration"`
	}{Run: run, Duration: run.Duration.String()}
	return enc.Encode(payload)
}

// WriteMarkdown prints a GitHub flavored markdown report with a pie chart of
// the label distribution.
func WriteMarkdown(w io.Writer, run *Run) error {
	md := markdown.NewMarkdown(w)
	md.H1("Malaria Cell Detection Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Server", "`" + run.Server + "`"},
			{"Date", run.Started.Format("2006-01-02 15:04:05 MST")},
			{"Images", strconv.Itoa(len(run.Results))},
			{"Parasitized", strconv.Itoa(run.Counts.Parasitized)},
			{"Uninfected", strconv.Itoa(run.Counts.Uninfected)},
		},
	})
	md.PlainText("")

	if run.Counts.Total() > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Prediction Count"),
			piechart.WithShowData(true),
		)
		chart.LabelAndIntValue(string(predict.Parasitized), uint64(run.Counts.Parasitized))
		chart.LabelAndIntValue(string(predict.Uninfected), uint64(run.Counts.Uninfected))
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case len(run.Results) == 0:
		md.Note("No images were processed.")
	case run.Counts.Parasitized > 0:
		md.Warningf("Malaria parasites detected in %d of %d cells.", run.Counts.Parasitized, run.Counts.Total())
	default:
		md.Tip("All cells appear healthy.")
	}
	md.PlainText("")

	if len(run.Results) > 0 {
		md.H2("Results")
		md.PlainText("")
		rows := make([][]string, 0, len(run.Results))
		for _, r := range run.Results {
			rows = append(rows, []string{
				"`" + r.Filename + "`",
				string(r.Label),
				strconv.FormatFloat(r.Confidence, 'f', -1, 64) + "%",
				r.Explanation(),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"File", "Label", "Confidence", "Explanation"},
			Rows:   rows,
		})
		md.PlainText("")
	}
	return md.Build()
}
