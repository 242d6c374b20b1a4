// Package display provides console output formatting for the felix CLI
// and renders workflow progress events with visual hierarchy.
package display

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/felixhq/felix/internal/workflow"
)

// Display handles all CLI output with visual hierarchy
type Display struct {
	theme     *Theme
	termWidth int
	noColor   bool
}

// New creates a new Display instance
func New() *Display {
	return NewWithOptions(false)
}

// NewWithOptions creates a Display with configuration
func NewWithOptions(noColor bool) *Display {
	d := &Display{
		termWidth: getTerminalWidth(),
		noColor:   noColor,
	}
	if noColor {
		d.theme = NoColorTheme()
	} else {
		d.theme = DefaultTheme()
	}
	return d
}

// getTerminalWidth returns the terminal width, defaulting to 80
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 40 {
		return 80
	}
	if width > 120 {
		return 120 // Cap at 120 for readability
	}
	return width
}

// Box prints a boxed message with a title
func (d *Display) Box(title string, lines ...string) {
	if len(lines) == 0 {
		return
	}

	width := d.termWidth - 2
	titleLen := len(title) + 4 // "─ TITLE "
	remainingWidth := width - titleLen

	topLine := BoxTopLeft + BoxHorizontal + " " + title + " " + strings.Repeat(BoxHorizontal, remainingWidth) + BoxTopRight
	fmt.Println(d.theme.Border(topLine))

	for _, line := range lines {
		paddedLine := d.padRight(line, width-2)
		fmt.Println(d.theme.Border(BoxVertical) + " " + d.theme.Text(paddedLine) + " " + d.theme.Border(BoxVertical))
	}

	bottomLine := BoxBottomLeft + strings.Repeat(BoxHorizontal, width) + BoxBottomRight
	fmt.Println(d.theme.Border(bottomLine))
}

// Status prints a single-line timestamped status message
func (d *Display) Status(symbol, message string) {
	timestamp := time.Now().Format("[15:04:05]")
	fmt.Printf("%s %s %s\n",
		d.theme.Dim(timestamp),
		symbol,
		d.theme.Text(message))
}

// Success prints a success message with green checkmark
func (d *Display) Success(message string) {
	d.Status(d.theme.Success(SymbolSuccess), message)
}

// Error prints an error message with red X
func (d *Display) Error(message string) {
	d.Status(d.theme.Error(SymbolError), message)
}

// Warning prints a warning message with yellow triangle
func (d *Display) Warning(message string) {
	d.Status(d.theme.Warning(SymbolWarning), message)
}

// Info prints a labeled info message
func (d *Display) Info(label, message string) {
	d.Status(d.theme.Info(label+":"), message)
}

// SectionBreak prints a horizontal separator
func (d *Display) SectionBreak() {
	fmt.Println(d.theme.Separator(strings.Repeat(SectionBreak, d.termWidth)))
}

// Header prints the run header
func (d *Display) Header(issueKey, summary string) {
	d.Box("FELIX", fmt.Sprintf("Fixing %s: %s", issueKey, Truncate(summary, d.termWidth-20)))
}

// Observer returns a progress sink that renders workflow and patch
// events as they arrive.
func (d *Display) Observer() workflow.Sink {
	return func(e workflow.Event) {
		switch e.Name {
		case "issue_loaded":
			d.Header(str(e.Payload, "key"), str(e.Payload, "summary"))
		case "context_collected":
			d.Info("Context", fmt.Sprintf("%v bytes collected", e.Payload["length"]))
		case "plan_generated":
			if analysis := str(e.Payload, "analysis"); analysis != "" {
				d.Info("Plan", Truncate(analysis, d.termWidth-15))
			}
			if origin := str(e.Payload, "origin"); origin == "unstructured" {
				d.Warning("Plan response was not structured JSON")
			}
		case "patches_proposed":
			d.Info("Patches", fmt.Sprintf("%v proposed", e.Payload["count"]))
		case "branch_ready":
			d.Info("Branch", str(e.Payload, "branch"))
		case "patch_preview":
			d.Status(d.theme.Dim(SymbolStep), fmt.Sprintf("Applying patch %v of %v", e.Payload["index"], e.Payload["total"]))
		case "patch_apply_start":
			d.Status(d.theme.Dim(SymbolStep), fmt.Sprintf("Apply attempt %v", e.Payload["attempt"]))
		case "patch_apply_success", "patch_applied":
			d.Success("Patch applied")
		case "patch_apply_error":
			d.Warning(fmt.Sprintf("Apply attempt %v failed: %s", e.Payload["attempt"], Truncate(str(e.Payload, "error"), d.termWidth-30)))
		case "patch_refined":
			d.Status(d.theme.Info(SymbolRetry), "Requested a corrected patch")
		case "patch_rewrite_applied":
			d.Success("Whole-file rewrite applied")
		case "patch_rewrite_failed":
			d.Warning("Rewrite fallback failed: " + Truncate(str(e.Payload, "error"), d.termWidth-30))
		case "workspace_changed":
			d.Info("Changed", fmt.Sprintf("%v", e.Payload["files"]))
		case "tests_completed":
			d.Success("Tests passed")
		case "tests_failed":
			d.Error("Tests failed: " + Truncate(str(e.Payload, "error"), d.termWidth-20))
		case "tests_skipped":
			d.Warning("No test commands configured")
		case "commit_created":
			d.Success("Committed: " + str(e.Payload, "message"))
		case "branch_pushed":
			d.Success("Pushed " + str(e.Payload, "branch"))
		case "dry_run_complete":
			d.Info("Dry run", "stopping before push, branch "+str(e.Payload, "branch"))
		case "pr_created":
			d.Success("PR created: " + str(e.Payload, "url"))
		case "push_complete":
			d.Info("Done", "pushed without PR (no GitHub credentials)")
		}
	}
}

func str(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// padRight pads a string to the specified width
func (d *Display) padRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Truncate truncates text to max length with ellipsis
func Truncate(s string, max int) string {
	s = CleanText(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// CleanText removes newlines and collapses spaces
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}
