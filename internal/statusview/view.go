// Package statusview renders the dashboard state for the terminal.
package statusview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/lifedash/internal/dashboard"
	"github.com/starford/lifedash/internal/models"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
)

var (
	title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	h2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	muted = lipgloss.NewStyle().Foreground(cMuted)
	good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)

	panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

// Status renders a quadrant status with a color for its health.
func Status(s models.Status) string {
	switch s {
	case models.StatusThriving, models.StatusBalanced:
		return good.Render(string(s))
	case models.StatusNeedsAttention:
		return warn.Render(string(s))
	case models.StatusDormant, models.StatusNeglected:
		return bad.Render(string(s))
	default:
		return muted.Render(string(s))
	}
}

func labelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", key.Render(label+":"), value)
}

// Render builds the status screen: the snapshot summary, the quadrants and
// the processing record.
func Render(rn dashboard.RightNow, quadrants []models.Quadrant, meta models.ProcessingMetadata) string {
	var b strings.Builder

	b.WriteString(title.Render("Right now"))
	if rn.Placeholder {
		b.WriteString(" " + muted.Render("(no refresh yet)"))
	}
	b.WriteString("\n")
	b.WriteString(labelValue("Week of", rn.WeekOf) + "\n")
	if rn.Summary != "" {
		b.WriteString(rn.Summary + "\n")
	}
	if rn.Celebration != "" {
		b.WriteString(labelValue("Celebrate", rn.Celebration) + "\n")
	}
	if rn.FriendlyNote != "" {
		b.WriteString(muted.Render(rn.FriendlyNote) + "\n")
	}

	b.WriteString("\n" + h2.Render("Quadrants") + "\n")
	rows := make([]string, 0, len(quadrants))
	for _, q := range quadrants {
		status := q.Status
		if s, ok := rn.QuadrantStatuses[q.Category]; ok && !rn.Placeholder && s != "" {
			status = s
		}
		line := fmt.Sprintf("%-22s %s", q.Name, Status(status))
		if q.LastActivity != "" {
			line += "  " + muted.Render("last "+q.LastActivity)
		}
		if q.ActivityPulse {
			line += " " + good.Render("●")
		}
		rows = append(rows, line)
	}
	if len(rows) == 0 {
		rows = append(rows, muted.Render("no quadrants"))
	}
	b.WriteString(panel.Render(strings.Join(rows, "\n")) + "\n")

	if len(rn.Actionables) > 0 {
		b.WriteString("\n" + h2.Render("Actionables") + "\n")
		for _, a := range rn.Actionables {
			line := "- " + a.Text
			if a.Priority != "" {
				line += " " + muted.Render("["+a.Priority+"]")
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(labelValue("Last processed", formatTime(meta.LastProcessed)) + "\n")
	b.WriteString(labelValue("Entries processed", meta.TotalEntriesProcessed) + "\n")
	return b.String()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
