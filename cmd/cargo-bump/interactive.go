package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

var errAborted = errors.New("user aborted")

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	hintStyle     = lipgloss.NewStyle().Faint(true)
)

// Prompter asks the user questions.
type Prompter interface {
	// Select returns the index of the chosen item.
	Select(title string, items []string) (int, error)
	// Input returns the first entered value validate accepts.
	Input(title, placeholder string, validate func(string) error) (string, error)
	// MultiSelect returns the indices of the checked items, every item starts checked.
	MultiSelect(title string, items []string) ([]int, error)
}

// Clipboard receives the recommended commit message.
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// --- selectModel: fuzzy filtered single choice ---

type selectModel struct {
	title   string
	items   []string
	filter  textinput.Model
	matches []int
	cursor  int
	done    bool
	aborted bool
}

func newSelectModel(title string, items []string) selectModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter"
	ti.Focus()
	return selectModel{title: title, items: items, filter: ti, matches: filterItems("", items)}
}

// filterItems returns the indices of items matching query, best match first.
func filterItems(query string, items []string) []int {
	if strings.TrimSpace(query) == "" {
		res := make([]int, len(items))
		for i := range items {
			res[i] = i
		}
		return res
	}
	found := fuzzy.Find(query, items)
	res := make([]int, len(found))
	for i, m := range found {
		res[i] = m.Index
	}
	return res
}

func (m selectModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			if len(m.matches) == 0 {
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.matches)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.matches = filterItems(m.filter.Value(), m.items)
	if m.cursor >= len(m.matches) {
		m.cursor = max(len(m.matches)-1, 0)
	}
	return m, cmd
}

// selected returns the chosen item index, -1 when nothing matches.
func (m selectModel) selected() int {
	if len(m.matches) == 0 {
		return -1
	}
	return m.matches[m.cursor]
}

func (m selectModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n")
	b.WriteString(m.filter.View() + "\n")
	for i, idx := range m.matches {
		if i == m.cursor {
			b.WriteString("> " + selectedStyle.Render(m.items[idx]) + "\n")
			continue
		}
		b.WriteString("  " + m.items[idx] + "\n")
	}
	if len(m.matches) == 0 {
		b.WriteString(errStyle.Render("no match") + "\n")
	}
	return b.String()
}

// --- inputModel: text input with validation ---

type inputModel struct {
	textInput textinput.Model
	title     string
	validate  func(string) error
	errMsg    string
	done      bool
	aborted   bool
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			if m.validate != nil {
				if err := m.validate(m.textInput.Value()); err != nil {
					m.errMsg = err.Error()
					return m, nil
				}
			}
			m.done = true
			return m, tea.Quit
		}
	}
	m.errMsg = ""
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n")
	b.WriteString(m.textInput.View() + "\n")
	if m.errMsg != "" {
		b.WriteString(errStyle.Render(m.errMsg) + "\n")
	}
	return b.String()
}

// --- multiSelectModel: checklist, everything checked up front ---

type multiSelectModel struct {
	title   string
	items   []string
	checked []bool
	cursor  int
	done    bool
	aborted bool
}

func newMultiSelectModel(title string, items []string) multiSelectModel {
	checked := make([]bool, len(items))
	for i := range checked {
		checked[i] = true
	}
	return multiSelectModel{title: title, items: items, checked: checked}
}

func (m multiSelectModel) Init() tea.Cmd {
	return nil
}

func (m multiSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case " ", "x":
		if len(m.items) > 0 {
			m.checked[m.cursor] = !m.checked[m.cursor]
		}
	case "a":
		all := true
		for _, c := range m.checked {
			all = all && c
		}
		for i := range m.checked {
			m.checked[i] = !all
		}
	}
	return m, nil
}

func (m multiSelectModel) selected() []int {
	res := []int{}
	for i, c := range m.checked {
		if c {
			res = append(res, i)
		}
	}
	return res
}

func (m multiSelectModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n")
	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		box := "[ ]"
		if m.checked[i] {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, item)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(cursor + line + "\n")
	}
	b.WriteString(hintStyle.Render("space: toggle, a: toggle all, enter: confirm") + "\n")
	return b.String()
}

// --- prompter ---

// teaPrompter runs the bubbletea models on a terminal.
type teaPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p teaPrompter) run(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m, tea.WithInput(p.in), tea.WithOutput(p.out)).Run()
}

func (p teaPrompter) Select(title string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, errors.New("nothing to select")
	}
	result, err := p.run(newSelectModel(title, items))
	if err != nil {
		return -1, err
	}
	rm := result.(selectModel)
	if rm.aborted {
		return -1, errAborted
	}
	return rm.selected(), nil
}

func (p teaPrompter) Input(title, placeholder string, validate func(string) error) (string, error) {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()

	result, err := p.run(inputModel{textInput: ti, title: title, validate: validate})
	if err != nil {
		return "", err
	}
	rm := result.(inputModel)
	if rm.aborted {
		return "", errAborted
	}
	return rm.textInput.Value(), nil
}

func (p teaPrompter) MultiSelect(title string, items []string) ([]int, error) {
	result, err := p.run(newMultiSelectModel(title, items))
	if err != nil {
		return nil, err
	}
	rm := result.(multiSelectModel)
	if rm.aborted {
		return nil, errAborted
	}
	return rm.selected(), nil
}
