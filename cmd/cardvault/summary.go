package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"cardvault/internal/importer"
	"cardvault/internal/media"
	"cardvault/internal/pipeline"
)

func renderImportSummary(s *importer.Summary, colorize bool) string {
	var b strings.Builder
	if s.Mock {
		b.WriteString(paint(colorize, color.FgYellow, "Mock run: no files were changed"))
		b.WriteString("\n\n")
	}
	for i, report := range s.Reports {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderPhaseReport(report, colorize))
	}
	if len(s.Unmounted) > 0 || len(s.UnmountFailures) > 0 {
		b.WriteString("\n")
		for _, path := range s.Unmounted {
			fmt.Fprintf(&b, "Unmounted %s\n", path)
		}
		for _, f := range s.UnmountFailures {
			b.WriteString(paint(colorize, color.FgRed, fmt.Sprintf("Could not unmount %s: %v", f.Path, f.Err)))
			b.WriteString("\n")
		}
	}
	if s.Failed() {
		b.WriteString("\n")
		b.WriteString(paint(colorize, color.FgRed, fmt.Sprintf("%d transfer(s) failed; cards were left mounted", s.FailureCount())))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPhaseReport(r pipeline.PhaseReport, colorize bool) string {
	var b strings.Builder
	b.WriteString(paint(colorize, color.FgBlue, fmt.Sprintf("== %s ==", r.Title)))
	b.WriteString("\n")

	rows := make([][]string, 0, len(r.Directories))
	for _, d := range r.Directories {
		rows = append(rows, []string{displayDir(r.BasePath, d.Dir), strconv.Itoa(d.Files)})
	}
	b.WriteString(tableSpec{
		headers: []string{"Directory", "Files"},
		rows:    rows,
		right:   []int{1},
		footer:  []string{"Total", strconv.Itoa(r.Total())},
	}.render())
	b.WriteString("\n")

	fmt.Fprintf(&b, "%d %s, %d already archived, %s in %s\n",
		r.Transferred, pastTense(r.Operation), r.AlreadyPresent,
		humanize.IBytes(uint64(r.Bytes)), r.Elapsed.Round(10*time.Millisecond))

	if r.Failed() {
		failRows := make([][]string, 0, len(r.Failures))
		for _, f := range r.Failures {
			failRows = append(failRows, []string{f.Path, f.Err.Error()})
		}
		b.WriteString(paint(colorize, color.FgRed, tableSpec{
			headers: []string{"Failed file", "Error"},
			rows:    failRows,
		}.render()))
		b.WriteString("\n")
	}
	return b.String()
}

func renderCardsTable(cards []media.Card) string {
	rows := make([][]string, 0, len(cards))
	total := 0
	for _, card := range cards {
		rows = append(rows, []string{card.Name, card.Root, strconv.Itoa(len(card.Files))})
		total += len(card.Files)
	}
	return tableSpec{
		headers: []string{"Card", "Mount", "Files"},
		rows:    rows,
		right:   []int{2},
		footer:  []string{"", "", strconv.Itoa(total)},
	}.render()
}

// displayDir shows dir relative to its archive root when possible.
func displayDir(base, dir string) string {
	if rel, err := filepath.Rel(base, dir); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return dir
}

func pastTense(operation string) string {
	switch operation {
	case "copy":
		return "copied"
	case "move":
		return "moved"
	case "mock":
		return "planned"
	default:
		return operation
	}
}

func paint(colorize bool, attr color.Attribute, s string) string {
	if !colorize {
		return s
	}
	return color.New(attr).Sprint(s)
}
