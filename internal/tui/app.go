// internal/tui/app.go
//
// Terminal UI for taskdeck. It uses bubbletea, which follows The Elm
// Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The engine runs entirely inside the Update loop, so all of its state is
// mutated from one goroutine. Remote calls are wrapped in tea.Cmd; their
// outcomes come back as messages and are reconciled here.

package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskdeck/taskdeck/internal/engine"
	"github.com/taskdeck/taskdeck/internal/journal"
)

// viewState represents which "screen" we're on
type viewState int

const (
	viewList    viewState = iota // The task board
	viewCreate                   // New-task form
	viewEdit                     // Edit form for the selected task
	viewConfirm                  // Yes/no gate before a delete
)

type focusField int

const (
	focusTitle focusField = iota
	focusDescription
)

// engineEventMsg carries a gateway outcome back into the update loop.
type engineEventMsg struct {
	event engine.Event
}

// App is the main application model. It owns the engine and renders its
// snapshots; it never touches the replica directly.
type App struct {
	engine  *engine.Engine
	journal *journal.Journal
	snap    engine.Snapshot

	state  viewState
	cursor int
	focus  focusField

	titleInput textinput.Model
	descInput  textarea.Model
	editingID  string

	confirmPrompt string
	confirmAction func() []engine.Command

	width  int
	height int

	statusMsg string
}

// NewApp creates the TUI model around an engine.
func NewApp(eng *engine.Engine, jrnl *journal.Journal) *App {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200

	desc := textarea.New()
	desc.Placeholder = "Description"
	desc.SetHeight(3)
	desc.ShowLineNumbers = false

	app := &App{
		engine:     eng,
		journal:    jrnl,
		titleInput: title,
		descInput:  desc,
		statusMsg:  "Loading tasks...",
	}
	app.snap = eng.Snapshot()
	return app
}

// Init kicks off the initial load.
func (a *App) Init() tea.Cmd {
	return a.dispatch(a.engine.Load())
}

// dispatch refreshes the snapshot and schedules any engine commands as
// background work. Each command resolves to exactly one engineEventMsg.
func (a *App) dispatch(cmds ...engine.Command) tea.Cmd {
	var batch []tea.Cmd
	for _, cmd := range cmds {
		if cmd == nil {
			continue
		}
		run := cmd
		batch = append(batch, func() tea.Msg {
			return engineEventMsg{event: run(context.Background())}
		})
	}
	a.snap = a.engine.Snapshot()
	a.clampCursor()
	if len(batch) == 0 {
		return nil
	}
	return tea.Batch(batch...)
}

func (a *App) clampCursor() {
	if a.cursor >= len(a.snap.Tasks) {
		a.cursor = len(a.snap.Tasks) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a *App) selectedID() string {
	if a.cursor < 0 || a.cursor >= len(a.snap.Tasks) {
		return ""
	}
	return a.snap.Tasks[a.cursor].ID
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.titleInput.Width = max(20, msg.Width-12)
		a.descInput.SetWidth(max(20, msg.Width-12))
		return a, nil

	case engineEventMsg:
		a.engine.Apply(msg.event)
		a.snap = a.engine.Snapshot()
		a.clampCursor()
		if a.snap.LastErr != "" {
			a.statusMsg = a.snap.LastErr
		} else {
			a.statusMsg = ""
		}
		return a, nil

	case tea.KeyMsg:
		switch a.state {
		case viewList:
			return a.updateList(msg)
		case viewCreate, viewEdit:
			return a.updateForm(msg)
		case viewConfirm:
			return a.updateConfirm(msg)
		}
	}
	return a, nil
}

func (a *App) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.snap.Tasks)-1 {
			a.cursor++
		}
	case "r":
		a.statusMsg = "Refreshing..."
		return a, a.dispatch(a.engine.Load())
	case " ", "enter":
		if id := a.selectedID(); id != "" {
			return a, a.dispatch(a.engine.ToggleCompletion(id))
		}
	case "n":
		a.openCreateForm()
		return a, a.titleInput.Focus()
	case "e":
		if id := a.selectedID(); id != "" && !a.engine.InFlight(id) {
			a.engine.BeginEdit(id)
			a.openEditForm()
			return a, a.titleInput.Focus()
		}
	case "d":
		if id := a.selectedID(); id != "" && !a.engine.InFlight(id) {
			title := a.snap.Tasks[a.cursor].Title
			a.confirmPrompt = fmt.Sprintf("Delete %q?", title)
			a.confirmAction = func() []engine.Command {
				if cmd := a.engine.DeleteTask(id); cmd != nil {
					return []engine.Command{cmd}
				}
				return nil
			}
			a.state = viewConfirm
		}
	case "D":
		completed := 0
		for _, t := range a.snap.Tasks {
			if t.Completed {
				completed++
			}
		}
		if completed > 0 {
			a.confirmPrompt = fmt.Sprintf("Delete %d completed task(s)?", completed)
			a.confirmAction = a.engine.DeleteCompleted
			a.state = viewConfirm
		}
	}
	return a, nil
}

func (a *App) openCreateForm() {
	a.state = viewCreate
	a.focus = focusTitle
	a.titleInput.SetValue("")
	a.descInput.SetValue("")
	a.descInput.Blur()
}

func (a *App) openEditForm() {
	a.state = viewEdit
	a.focus = focusTitle
	snap := a.engine.Snapshot()
	if snap.Editing == nil {
		a.state = viewList
		return
	}
	a.editingID = snap.Editing.ID
	a.titleInput.SetValue(snap.Editing.Title)
	a.descInput.SetValue(snap.Editing.Description)
	a.descInput.Blur()
}

func (a *App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		if a.state == viewEdit {
			a.engine.CancelEdit()
		}
		a.closeForm()
		return a, nil
	case "tab", "shift+tab":
		if a.focus == focusTitle {
			a.focus = focusDescription
			a.titleInput.Blur()
			return a, a.descInput.Focus()
		}
		a.focus = focusTitle
		a.descInput.Blur()
		return a, a.titleInput.Focus()
	case "enter":
		if a.focus == focusTitle {
			return a.submitForm()
		}
	case "ctrl+s":
		return a.submitForm()
	}

	var cmd tea.Cmd
	if a.focus == focusTitle {
		a.titleInput, cmd = a.titleInput.Update(msg)
	} else {
		a.descInput, cmd = a.descInput.Update(msg)
	}
	if a.state == viewEdit {
		a.engine.SetEditTitle(a.titleInput.Value())
		a.engine.SetEditDescription(a.descInput.Value())
	}
	return a, cmd
}

func (a *App) submitForm() (tea.Model, tea.Cmd) {
	switch a.state {
	case viewCreate:
		cmd := a.engine.Create(a.titleInput.Value(), a.descInput.Value())
		if cmd == nil {
			a.statusMsg = "Title must not be empty"
			return a, nil
		}
		a.closeForm()
		return a, a.dispatch(cmd)
	case viewEdit:
		cmd := a.engine.SaveEdit(a.editingID)
		a.closeForm()
		return a, a.dispatch(cmd)
	}
	return a, nil
}

func (a *App) closeForm() {
	a.state = viewList
	a.editingID = ""
	a.titleInput.Blur()
	a.descInput.Blur()
	a.statusMsg = ""
}

func (a *App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		action := a.confirmAction
		a.confirmAction = nil
		a.confirmPrompt = ""
		a.state = viewList
		if action != nil {
			return a, a.dispatch(action()...)
		}
	case "n", "N", "esc":
		// Declined: a no-op, not an error.
		a.confirmAction = nil
		a.confirmPrompt = ""
		a.state = viewList
	case "ctrl+c":
		return a, tea.Quit
	}
	return a, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
