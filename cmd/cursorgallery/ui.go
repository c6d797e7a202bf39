package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/cursorgallery/cursorgallery/internal/catalog"
	"github.com/cursorgallery/cursorgallery/internal/progress"
	"github.com/cursorgallery/cursorgallery/internal/sync"
)

// Color palette
var (
	accent   = lipgloss.Color("#7C83FD")
	dimGray  = lipgloss.Color("#6B7280")
	gold     = lipgloss.Color("#E5A00D")
	green    = lipgloss.Color("#10B981")
	lightRed = lipgloss.Color("#F87171")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimGray)

	favoriteStyle = lipgloss.NewStyle().
			Foreground(gold)

	successStyle = lipgloss.NewStyle().
			Foreground(green)

	staleStyle = lipgloss.NewStyle().
			Foreground(lightRed)
)

// progressPrinter renders progress events as a single rewritten line
type progressPrinter struct {
	w io.Writer
}

const progressLabelWidth = 48

var progressLabelStyle = lipgloss.NewStyle().Width(progressLabelWidth)

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w}
}

func (p *progressPrinter) print(e progress.Event) {
	_, _ = fmt.Fprintf(p.w, "\r\033[K%s %s %s %s",
		titleStyle.Render(fmt.Sprintf("[%3d%%]", e.Percent)),
		dimStyle.Render(fmt.Sprintf("%-9s", e.Phase)),
		progressLabelStyle.Render(truncateLeft(e.Label, progressLabelWidth)),
		dimStyle.Render(fmt.Sprintf("%.2f MB/s", e.ThroughputMBps)))
	if e.Percent == 100 {
		_, _ = fmt.Fprintln(p.w)
	}
}

// truncateLeft keeps the last width runes of s, marking the cut with "..."
func truncateLeft(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return "..." + string(runes[len(runes)-(width-3):])
}

// renderPlan writes the files a sync would download
func renderPlan(w io.Writer, plan *sync.Plan) {
	if plan.Empty() {
		_, _ = fmt.Fprintln(w, successStyle.Render("Library is up to date."))
		return
	}

	_, _ = fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d files to download (%s)",
		len(plan.Entries), humanize.Bytes(uint64(plan.Bytes())))))
	for _, e := range plan.Entries {
		reason := successStyle.Render("new    ")
		if e.Reason == sync.ReasonStale {
			reason = staleStyle.Render("changed")
		}
		_, _ = fmt.Fprintf(w, "  %s %s\n", reason, e.Remote.RelativePath)
	}
	if n := len(plan.Unverified); n > 0 {
		_, _ = fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d local files kept without a remote checksum", n)))
	}
}

// renderPage writes one page of themes
func renderPage(w io.Writer, heading string, page catalog.Page, isFavorite func(catalog.Key) bool) {
	_, _ = fmt.Fprintln(w, titleStyle.Render(heading))
	if page.Total == 0 {
		_, _ = fmt.Fprintln(w, dimStyle.Render("  no themes"))
	}

	for _, t := range page.Themes {
		star := " "
		if isFavorite(t.Key()) {
			star = favoriteStyle.Render("★")
		}

		var extras []string
		extras = append(extras, fmt.Sprintf("%d cursors", len(t.Cursors)))
		if t.Preview != "" {
			extras = append(extras, "preview")
		}
		_, _ = fmt.Fprintf(w, "%s %-24s %s %s\n", star, t.Name,
			dimStyle.Render(string(t.Category)),
			dimStyle.Render("("+strings.Join(extras, ", ")+")"))
	}

	_, _ = fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("Page %d of %d", page.Number+1, page.TotalPages)))
}
