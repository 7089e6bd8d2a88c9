// Package tui is the interactive terminal view over a shoplist.Controller.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/internal/toast"
	"github.com/fastygo/shoplist/usecase/shoplist"
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
	modeFilter
)

// ToastMsg carries a toast transition into the update loop.
type ToastMsg toast.State

// resultMsg reports the end of a gesture. Failures are already on the toast.
type resultMsg struct {
	err error
}

// Relay forwards toast transitions to a running program. Transitions that
// happen before the program starts are dropped.
type Relay struct {
	mu      sync.Mutex
	program *tea.Program
}

func (r *Relay) Notify(state toast.State) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Send(ToastMsg(state))
	}
}

func (r *Relay) attach(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

type Model struct {
	ctx  context.Context
	ctrl *shoplist.Controller

	mode     mode
	editID   string
	cursor   int
	textIn   textinput.Model
	qtyIn    textinput.Model
	filterIn textinput.Model
	toast    toast.State

	keys     keyMap
	help     help.Model
	showHelp bool
	busy     bool
	lastErr  error
	quitting bool
}

func New(ctx context.Context, ctrl *shoplist.Controller) Model {
	textIn := textinput.New()
	textIn.Placeholder = "Add an item..."
	textIn.CharLimit = 200
	textIn.Prompt = "› "

	qtyIn := textinput.New()
	qtyIn.Placeholder = "1"
	qtyIn.CharLimit = 6
	qtyIn.Prompt = "qty "
	qtyIn.Validate = func(s string) error {
		if s == "" {
			return nil
		}
		_, err := strconv.Atoi(s)
		return err
	}

	filterIn := textinput.New()
	filterIn.Placeholder = "Filter items..."
	filterIn.Prompt = "/ "

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		textIn:   textIn,
		qtyIn:    qtyIn,
		filterIn: filterIn,
		toast:    ctrl.Toast(),
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.run(m.ctrl.Load)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case ToastMsg:
		m.toast = toast.State(typed)
		return m, nil
	case resultMsg:
		m.busy = false
		m.lastErr = typed.err
		m.toast = m.ctrl.Toast()
		m.clampCursor()
		return m, nil
	case tea.WindowSizeMsg:
		m.help.Width = typed.Width
		return m, nil
	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateForm(typed)
		}
		return m.updateBrowse(typed)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.ctrl.Visible()
	selected, hasSelection := m.selected(visible)

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.Sort):
		m.ctrl.FlipSort()
	case key.Matches(msg, m.keys.Hide):
		m.ctrl.SetHideCompleted(!m.ctrl.View().HideCompleted)
		m.clampCursor()
	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		m.filterIn.SetValue(m.ctrl.View().Filter)
		m.filterIn.CursorEnd()
		return m, m.filterIn.Focus()
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.textIn.SetValue("")
		m.qtyIn.SetValue("")
		m.qtyIn.Blur()
		return m, m.textIn.Focus()
	case key.Matches(msg, m.keys.Edit):
		if !hasSelection {
			return m, nil
		}
		m.mode = modeEdit
		m.editID = selected.ID
		m.textIn.SetValue(selected.Text)
		m.textIn.CursorEnd()
		m.qtyIn.SetValue(strconv.Itoa(selected.Quantity))
		m.qtyIn.Blur()
		return m, m.textIn.Focus()
	case key.Matches(msg, m.keys.Toggle):
		if hasSelection {
			id := selected.ID
			return m.start(func(ctx context.Context) error { return m.ctrl.Toggle(ctx, id) })
		}
	case key.Matches(msg, m.keys.ToggleAll):
		return m.start(m.ctrl.ToggleAll)
	case key.Matches(msg, m.keys.Delete):
		if hasSelection {
			id := selected.ID
			return m.start(func(ctx context.Context) error { return m.ctrl.Remove(ctx, id) })
		}
	case key.Matches(msg, m.keys.Reload):
		return m.start(m.ctrl.Load)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeForm()
		return m, nil
	case key.Matches(msg, m.keys.NextField) && m.mode != modeFilter:
		if m.textIn.Focused() {
			m.textIn.Blur()
			return m, m.qtyIn.Focus()
		}
		m.qtyIn.Blur()
		return m, m.textIn.Focus()
	case key.Matches(msg, m.keys.Submit):
		return m.submitForm()
	}

	var cmd tea.Cmd
	switch {
	case m.mode == modeFilter:
		m.filterIn, cmd = m.filterIn.Update(msg)
		m.ctrl.SetFilter(m.filterIn.Value())
		m.clampCursor()
	case m.qtyIn.Focused():
		m.qtyIn, cmd = m.qtyIn.Update(msg)
	default:
		m.textIn, cmd = m.textIn.Update(msg)
	}
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	if m.busy && m.mode != modeFilter {
		return m, nil
	}
	text := m.textIn.Value()
	quantity := 1
	if q, err := strconv.Atoi(strings.TrimSpace(m.qtyIn.Value())); err == nil {
		quantity = q
	}

	switch m.mode {
	case modeFilter:
		m.closeForm()
		return m, nil
	case modeAdd:
		m.closeForm()
		return m.start(func(ctx context.Context) error { return m.ctrl.Add(ctx, text, quantity) })
	case modeEdit:
		id := m.editID
		m.closeForm()
		return m.start(func(ctx context.Context) error { return m.ctrl.Edit(ctx, id, text, quantity) })
	}
	return m, nil
}

func (m *Model) closeForm() {
	m.mode = modeBrowse
	m.editID = ""
	m.textIn.Blur()
	m.qtyIn.Blur()
	m.filterIn.Blur()
}

// start runs one gesture. Keys that start another are ignored until it ends.
func (m Model) start(fn func(context.Context) error) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	return m, m.run(fn)
}

func (m Model) run(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return resultMsg{err: fn(ctx)}
	}
}

func (m Model) selected(visible []domain.Item) (domain.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(visible) {
		return domain.Item{}, false
	}
	return visible[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	view := m.ctrl.View()
	visible := m.ctrl.Visible()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Shopping List"))
	b.WriteString("\n\n")

	allBox := checkbox(m.ctrl.AllCompleted())
	hideBox := checkbox(view.HideCompleted)
	b.WriteString(controlStyle.Render(fmt.Sprintf("[%s]  %s Check all  %s Hide completed", view.Order.Label(), allBox, hideBox)))
	b.WriteString("\n")

	switch m.mode {
	case modeFilter:
		b.WriteString(m.filterIn.View())
	case modeAdd, modeEdit:
		b.WriteString(m.textIn.View() + "  " + m.qtyIn.View())
	default:
		if view.Filter != "" {
			b.WriteString(controlStyle.Render("filter: " + view.Filter))
		}
	}
	b.WriteString("\n\n")

	if m.busy {
		b.WriteString(busyStyle.Render("Working..."))
		b.WriteString("\n")
	}
	if len(visible) == 0 {
		b.WriteString(emptyStyle.Render("Nothing here yet."))
		b.WriteString("\n")
	}
	for i, item := range visible {
		b.WriteString(renderItem(item, i == m.cursor))
	}

	if m.toast.Message != "" {
		style := toastStyle
		if m.toast.Fading {
			style = fadingStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.toast.Message))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.mode != modeBrowse:
		b.WriteString(m.help.View(formKeys{m.keys}))
	case m.showHelp:
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	default:
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func renderItem(item domain.Item, current bool) string {
	pointer := "  "
	if current {
		pointer = cursorStyle.Render("> ")
	}
	text := item.Text
	if item.Completed {
		text = completedStyle.Render(text)
	}
	line := fmt.Sprintf("%s%s %s ×%d\n", pointer, checkbox(item.Completed), text, item.Quantity)
	created := item.CreatedAt
	meta := metaStyle.Render(fmt.Sprintf("Created: %s  Completed: %s", domain.FormatDate(&created), domain.FormatDate(item.CompletedAt)))
	return line + meta + "\n"
}

func checkbox(checked bool) string {
	if checked {
		return "[x]"
	}
	return "[ ]"
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, ctrl *shoplist.Controller, relay *Relay) error {
	p := tea.NewProgram(New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	if relay != nil {
		relay.attach(p)
		defer relay.attach(nil)
	}
	_, err := p.Run()
	return err
}
