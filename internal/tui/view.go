package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taskdeck/taskdeck/internal/journal"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	doneStyle = lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(lipgloss.Color("#6A9955"))

	flightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E06C75"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
)

// View renders the current state to a string.
func (a *App) View() string {
	var body string
	switch a.state {
	case viewList:
		body = a.renderBoard()
	case viewCreate:
		body = a.renderForm("New Task", "Enter → create    Tab → switch field    Esc → cancel")
	case viewEdit:
		body = a.renderForm("Edit Task", "Enter → save    Tab → switch field    Esc → cancel")
	case viewConfirm:
		body = a.renderConfirm()
	}

	sections := []string{
		headerStyle.Render("⬡ TASKDECK"),
		a.renderStats(),
		body,
	}
	if panel := a.renderJournalPanel(); panel != "" {
		sections = append(sections, panel)
	}
	if footer := a.renderFooter(); footer != "" {
		sections = append(sections, footer)
	}
	return strings.Join(sections, "\n")
}

func (a *App) renderStats() string {
	total := len(a.snap.Tasks)
	completed := 0
	for _, t := range a.snap.Tasks {
		if t.Completed {
			completed++
		}
	}
	line := fmt.Sprintf("%d task(s) · %d completed · %d pending", total, completed, total-completed)
	if total > 0 {
		line += fmt.Sprintf(" · %d%% done", completed*100/total)
	}
	if len(a.snap.InFlight) > 0 {
		line += flightStyle.Render(fmt.Sprintf(" · %d syncing", len(a.snap.InFlight)))
	}
	if a.snap.Loading {
		line += dimStyle.Render(" · loading…")
	}
	return dimStyle.Render(line)
}

func (a *App) renderBoard() string {
	if len(a.snap.Tasks) == 0 {
		empty := dimStyle.Render("No tasks yet. Press n to create one.")
		return panelStyle.Render(empty)
	}
	var rows []string
	for i, t := range a.snap.Tasks {
		marker := "  "
		if i == a.cursor {
			marker = "➤ "
		}
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		title := t.Title
		if t.Completed {
			title = doneStyle.Render(title)
		}
		line := fmt.Sprintf("%s%s %s", marker, box, title)
		if _, busy := a.snap.InFlight[t.ID]; busy {
			line += flightStyle.Render(" ⟳")
		}
		if i == a.cursor {
			line = selectedStyle.Render(line)
			if desc := strings.TrimSpace(t.Description); desc != "" {
				line += "\n" + dimStyle.Render("      "+firstLine(desc))
			}
		}
		rows = append(rows, line)
	}
	return panelStyle.Render(strings.Join(rows, "\n"))
}

func (a *App) renderForm(title, hint string) string {
	parts := []string{
		labelStyle.Render(title),
		"",
		a.titleInput.View(),
		"",
		a.descInput.View(),
		hintStyle.Render(hint),
	}
	return panelStyle.Render(strings.Join(parts, "\n"))
}

func (a *App) renderConfirm() string {
	parts := []string{
		labelStyle.Render(a.confirmPrompt),
		hintStyle.Render("y → confirm    n → cancel"),
	}
	return panelStyle.Render(strings.Join(parts, "\n"))
}

func (a *App) renderJournalPanel() string {
	if a.journal == nil {
		return ""
	}
	entries := a.journal.Tail(6)
	if len(entries) == 0 {
		return ""
	}
	rows := []string{labelStyle.Render("JOURNAL")}
	for _, e := range entries {
		line := fmt.Sprintf("%s %s", e.Time.Format("15:04:05"), e.Message)
		switch e.Level {
		case journal.LevelError:
			line = errStyle.Render(line)
		case journal.LevelWarn:
			line = flightStyle.Render(line)
		default:
			line = dimStyle.Render(line)
		}
		rows = append(rows, line)
	}
	return panelStyle.Render(strings.Join(rows, "\n"))
}

func (a *App) renderFooter() string {
	var parts []string
	if a.statusMsg != "" {
		if a.snap.LastErr != "" && a.statusMsg == a.snap.LastErr {
			parts = append(parts, errStyle.Render("⚠ "+a.statusMsg))
		} else {
			parts = append(parts, dimStyle.Render(a.statusMsg))
		}
	}
	if a.state == viewList {
		parts = append(parts, hintStyle.Render(
			"space → toggle    n → new    e → edit    d → delete    D → delete completed    r → refresh    q → quit"))
	}
	return strings.Join(parts, "\n")
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
