package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/rafabd1/vipmanager/internal/member"
	"github.com/rafabd1/vipmanager/internal/store"
	"github.com/rafabd1/vipmanager/pkg/events"
)

// MemberStore is the part of the member store the TUI drives.
type MemberStore interface {
	Members() []member.Member
	Add(m member.Member)
	Update(m member.Member)
	Delete(m member.Member)
}

// Options configures the TUI.
type Options struct {
	Locale      language.Tag   // language.Und compares names byte-wise
	DefaultSort member.SortKey // empty starts in store order
	Logger      logrus.FieldLogger
}

type mode int

const (
	modeList mode = iota
	modeSearch
	modeForm
	modeConfirm
)

// sortCycle is the order the s key walks through. The empty key is store order.
var sortCycle = []member.SortKey{"", member.SortByName, member.SortByBalance, member.SortByDate}

const (
	fieldName = iota
	fieldLocation
	fieldPhone
	fieldBalance
	fieldCount
)

var fieldLabels = [fieldCount]string{"Store name", "Location", "Phone", "Balance"}

// Model is the bubbletea model of the member manager.
type Model struct {
	store  MemberStore
	locale language.Tag
	log    logrus.FieldLogger

	mode    mode
	sortKey member.SortKey
	search  textinput.Model
	rows    []member.Member
	cursor  int
	offset  int

	inputs    [fieldCount]textinput.Model
	focus     int
	editing   *member.Member
	formError string

	status    string
	statusErr bool

	width  int
	height int

	titleStyle    lipgloss.Style
	headerStyle   lipgloss.Style
	cellStyle     lipgloss.Style
	selectedStyle lipgloss.Style
	errorStyle    lipgloss.Style
	helpStyle     lipgloss.Style
	labelStyle    lipgloss.Style
}

// New initializes a model showing the store's current members.
func New(s MemberStore, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search name, location or phone"

	m := &Model{
		store:   s,
		locale:  opts.Locale,
		log:     logger.WithField("component", "tui"),
		sortKey: opts.DefaultSort,
		search:  search,
		height:  24,
		width:   80,

		titleStyle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		headerStyle:   lipgloss.NewStyle().Bold(true).Padding(0, 1),
		cellStyle:     lipgloss.NewStyle().Padding(0, 1),
		selectedStyle: lipgloss.NewStyle().Padding(0, 1).Reverse(true),
		errorStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		helpStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		labelStyle:    lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("5")),
	}
	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = ""
		switch i {
		case fieldPhone:
			in.CharLimit = member.MinPhoneDigits
		case fieldBalance:
			in.Placeholder = "0.00"
		default:
			in.CharLimit = 64
		}
		m.inputs[i] = in
	}
	m.refresh()
	return m
}

// Init is the first function run when the program starts.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.clampCursor()
		return m, nil

	case events.StoreMsg:
		m.handleStoreEvent(msg.Event)
		return m, nil

	case events.StoreClosedMsg:
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m *Model) handleStoreEvent(ev store.Event) {
	switch ev.Kind {
	case store.EventRolledBack:
		m.setError(fmt.Sprintf("Could not save %s of %s: %v. Change undone.", ev.Op, ev.Member.StoreName, ev.Err))
	case store.EventPersistFailed:
		if !m.statusErr {
			m.setError(fmt.Sprintf("Save failed: %v", ev.Err))
		}
	case store.EventPersisted:
		if ev.Op != store.OpResync && !m.statusErr {
			m.setStatus(fmt.Sprintf("Saved %d member(s).", ev.Count))
		}
	case store.EventLoaded:
		m.setStatus(fmt.Sprintf("Loaded %d member(s).", ev.Count))
	}
	m.refresh()
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.refresh()
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.clampCursor()
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		m.clampCursor()
	case "/":
		m.mode = modeSearch
		return m, m.search.Focus()
	case "s":
		m.cycleSort()
	case "a":
		return m, m.openForm(nil)
	case "e", "enter":
		if sel, ok := m.selected(); ok {
			return m, m.openForm(&sel)
		}
	case "d":
		if _, ok := m.selected(); ok {
			m.mode = modeConfirm
		}
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.SetValue("")
		fallthrough
	case tea.KeyEnter:
		m.search.Blur()
		m.mode = modeList
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor, m.offset = 0, 0
	m.refresh()
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if sel, ok := m.selected(); ok {
			m.store.Delete(sel)
			m.setStatus(fmt.Sprintf("Deleted %s.", sel.StoreName))
		}
		m.mode = modeList
		m.refresh()
	case "n", "N", "esc":
		m.mode = modeList
	}
	return m, nil
}

func (m *Model) openForm(editing *member.Member) tea.Cmd {
	d := member.Draft{}
	if editing != nil {
		d = member.DraftFrom(*editing)
	}
	values := [fieldCount]string{d.StoreName, d.Location, d.PhoneNumber, d.Balance}
	for i := range m.inputs {
		m.inputs[i].SetValue(values[i])
		m.inputs[i].Blur()
	}
	m.editing = editing
	m.formError = ""
	m.focus = 0
	m.mode = modeForm
	return m.inputs[0].Focus()
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeForm()
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, m.moveFocus(1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.moveFocus(-1)
	case tea.KeyEnter:
		if m.focus < fieldCount-1 {
			return m, m.moveFocus(1)
		}
		m.submitForm()
		return m, nil
	case tea.KeyCtrlS:
		m.submitForm()
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	switch m.focus {
	case fieldPhone:
		m.applyFilter(member.FilterPhoneInput)
	case fieldBalance:
		m.applyFilter(member.FilterBalanceInput)
	}
	return m, cmd
}

func (m *Model) applyFilter(filter func(string) string) {
	in := &m.inputs[m.focus]
	if v := in.Value(); filter(v) != v {
		in.SetValue(filter(v))
	}
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount
	return m.inputs[m.focus].Focus()
}

func (m *Model) draft() member.Draft {
	return member.Draft{
		StoreName:   m.inputs[fieldName].Value(),
		Location:    m.inputs[fieldLocation].Value(),
		PhoneNumber: m.inputs[fieldPhone].Value(),
		Balance:     m.inputs[fieldBalance].Value(),
	}
}

func (m *Model) submitForm() {
	d := m.draft()
	if m.editing == nil {
		created, err := d.Build()
		if err != nil {
			m.formError = err.Error()
			return
		}
		m.store.Add(created)
		m.log.WithField("member_id", created.ID).Debug("member added from form")
		m.setStatus(fmt.Sprintf("Added %s.", created.StoreName))
	} else {
		updated, err := d.Apply(*m.editing)
		if err != nil {
			m.formError = err.Error()
			return
		}
		m.store.Update(updated)
		m.log.WithField("member_id", updated.ID).Debug("member updated from form")
		m.setStatus(fmt.Sprintf("Updated %s.", updated.StoreName))
	}
	m.closeForm()
	m.refresh()
}

func (m *Model) closeForm() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.editing = nil
	m.formError = ""
	m.mode = modeList
}

func (m *Model) cycleSort() {
	next := 0
	for i, k := range sortCycle {
		if k == m.sortKey {
			next = (i + 1) % len(sortCycle)
			break
		}
	}
	m.sortKey = sortCycle[next]
	m.refresh()
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(s string) {
	m.status, m.statusErr = s, true
}

// refresh rebuilds the visible rows from the store, keeping the cursor on the
// same member when it is still shown.
func (m *Model) refresh() {
	var keep string
	if sel, ok := m.selected(); ok {
		keep = sel.ID.String()
	}

	rows := member.Filter(m.store.Members(), m.search.Value())
	if m.sortKey != "" {
		if m.locale == language.Und {
			rows = member.Sort(rows, m.sortKey)
		} else {
			rows = member.SortLocale(rows, m.sortKey, m.locale)
		}
	}
	m.rows = rows

	for i, r := range rows {
		if r.ID.String() == keep {
			m.cursor = i
			break
		}
	}
	m.clampCursor()
}

func (m *Model) selected() (member.Member, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return member.Member{}, false
	}
	return m.rows[m.cursor], true
}

// listHeight is the number of table rows that fit between header and footer.
func (m *Model) listHeight() int {
	return max(m.height-9, 1)
}

func (m *Model) clampCursor() {
	m.cursor = max(min(m.cursor, len(m.rows)-1), 0)
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(min(m.offset, len(m.rows)-h), 0)
}

// View renders the current UI.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	switch m.mode {
	case modeForm:
		b.WriteString(m.formView())
	default:
		b.WriteString(m.listView())
		if m.mode == modeSearch || m.search.Value() != "" {
			b.WriteString("\n")
			b.WriteString(m.search.View())
		}
		if m.mode == modeConfirm {
			if sel, ok := m.selected(); ok {
				b.WriteString("\n")
				b.WriteString(m.errorStyle.Render(fmt.Sprintf("Delete %s (%s)? y/n", sel.StoreName, sel.ShortID())))
			}
		}
	}
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

func (m *Model) headerView() string {
	order := "store order"
	if m.sortKey != "" {
		order = "by " + string(m.sortKey)
	}
	title := m.titleStyle.Render("VIP Members")
	info := m.helpStyle.Render(fmt.Sprintf("  %d shown · %s", len(m.rows), order))
	return title + info
}

func (m *Model) listView() string {
	if len(m.rows) == 0 {
		if m.search.Value() != "" {
			return m.helpStyle.Render("No members match the search.")
		}
		return m.helpStyle.Render("No members yet. Press a to add one.")
	}

	end := min(m.offset+m.listHeight(), len(m.rows))
	window := m.rows[m.offset:end]
	rows := make([][]string, 0, len(window))
	for _, r := range window {
		rows = append(rows, []string{r.StoreName, r.Location, r.PhoneNumber, r.FormatBalance()})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("STORE", "LOCATION", "PHONE", "BALANCE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return m.headerStyle
			case m.offset+row == m.cursor:
				return m.selectedStyle
			default:
				return m.cellStyle
			}
		})
	return t.Render()
}

func (m *Model) formView() string {
	title := "New member"
	if m.editing != nil {
		title = "Edit " + m.editing.StoreName
	}
	lines := []string{m.titleStyle.Render(title), ""}
	for i, in := range m.inputs {
		lines = append(lines, m.labelStyle.Render(fieldLabels[i])+in.View())
	}
	if m.formError != "" {
		lines = append(lines, "", m.errorStyle.Render(m.formError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) footerView() string {
	var help string
	switch m.mode {
	case modeSearch:
		help = "enter: keep filter · esc: clear"
	case modeForm:
		help = "tab/shift+tab: move · enter: next/save · ctrl+s: save · esc: cancel"
	case modeConfirm:
		help = "y: delete · n: cancel"
	default:
		help = "↑/↓: move · /: search · s: sort · a: add · e: edit · d: delete · q: quit"
	}
	status := m.status
	if m.statusErr {
		status = m.errorStyle.Render(status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, status, m.helpStyle.Render(help))
}

// Run starts the program and relays store events to it until the program exits.
func Run(ctx context.Context, s *store.Store, opts Options) error {
	model := New(s, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	go events.Forward(s.Subscribe(), p.Send)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(err, "run tui")
	}
	return nil
}
