package tui

import (
	"slices"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/rafabd1/vipmanager/internal/member"
	"github.com/rafabd1/vipmanager/internal/store"
	"github.com/rafabd1/vipmanager/pkg/events"
)

// memStore applies mutations synchronously.
type memStore struct {
	mu      sync.Mutex
	members []member.Member
}

func (s *memStore) Members() []member.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.members)
}

func (s *memStore) Add(m member.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = slices.Insert(s.members, 0, m)
}

func (s *memStore) Update(m member.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.IndexFunc(s.members, func(cur member.Member) bool { return cur.ID == m.ID }); i >= 0 {
		s.members[i] = m
	}
}

func (s *memStore) Delete(m member.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = slices.DeleteFunc(s.members, func(cur member.Member) bool { return cur.ID == m.ID })
}

func shop(name, balance string, created time.Time) member.Member {
	return member.Member{
		ID:          uuid.New(),
		StoreName:   name,
		Location:    "Main St",
		PhoneNumber: "13800000000",
		Balance:     decimal.RequireFromString(balance),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func newModel(t *testing.T, members ...member.Member) (*Model, *memStore) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	s := &memStore{members: members}
	return New(s, Options{Locale: language.Und, Logger: logger}), s
}

func key(m *Model, k string) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	m.Update(msg)
}

func names(rows []member.Member) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.StoreName)
	}
	return out
}

func TestAddThroughForm(t *testing.T) {
	m, s := newModel(t)

	key(m, "a")
	require.Equal(t, modeForm, m.mode)
	key(m, "Shop A")
	key(m, "enter")
	key(m, "Main St")
	key(m, "enter")
	key(m, "1380000000099")
	assert.Equal(t, "13800000000", m.inputs[fieldPhone].Value())
	key(m, "enter")
	key(m, "12.345")
	assert.Equal(t, "12.34", m.inputs[fieldBalance].Value())
	key(m, "enter")

	assert.Equal(t, modeList, m.mode)
	members := s.Members()
	require.Len(t, members, 1)
	assert.Equal(t, "Shop A", members[0].StoreName)
	assert.Equal(t, "12.34", members[0].FormatBalance())
	assert.Contains(t, m.View(), "Shop A")
}

func TestFormShowsValidationErrors(t *testing.T) {
	m, s := newModel(t)

	key(m, "a")
	key(m, "Shop A")
	key(m, "tab")
	key(m, "tab")
	key(m, "123")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Equal(t, modeForm, m.mode)
	assert.Contains(t, m.formError, "location is required")
	assert.Contains(t, m.formError, "phone number must be at least 11 digits")
	assert.Empty(t, s.Members())

	key(m, "esc")
	assert.Equal(t, modeList, m.mode)
}

func TestEditKeepsIdentity(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	orig := shop("Shop A", "10", created)
	m, s := newModel(t, orig)

	key(m, "e")
	require.Equal(t, modeForm, m.mode)
	assert.Equal(t, "Shop A", m.inputs[fieldName].Value())
	key(m, "!")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	got := s.Members()
	require.Len(t, got, 1)
	assert.Equal(t, orig.ID, got[0].ID)
	assert.Equal(t, "Shop A!", got[0].StoreName)
	assert.True(t, got[0].CreatedAt.Equal(created))
	assert.True(t, got[0].UpdatedAt.After(created))
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	now := time.Now()
	m, s := newModel(t, shop("Shop A", "1", now), shop("Shop B", "2", now))

	key(m, "down")
	key(m, "d")
	require.Equal(t, modeConfirm, m.mode)
	key(m, "n")
	assert.Len(t, s.Members(), 2)

	key(m, "d")
	key(m, "y")
	assert.Equal(t, []string{"Shop A"}, names(s.Members()))
	assert.Equal(t, []string{"Shop A"}, names(m.rows))
}

func TestSearchAndSortCycle(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m, _ := newModel(t,
		shop("Cafe", "50", base.Add(2*time.Hour)),
		shop("Big Shop", "500", base),
		shop("Small Shop", "5", base.Add(time.Hour)),
	)

	key(m, "s")
	assert.Equal(t, member.SortByName, m.sortKey)
	assert.Equal(t, []string{"Big Shop", "Cafe", "Small Shop"}, names(m.rows))
	key(m, "s")
	assert.Equal(t, []string{"Big Shop", "Cafe", "Small Shop"}, names(m.rows))
	key(m, "s")
	assert.Equal(t, member.SortByDate, m.sortKey)
	assert.Equal(t, []string{"Cafe", "Small Shop", "Big Shop"}, names(m.rows))
	key(m, "s")
	assert.Equal(t, member.SortKey(""), m.sortKey)

	key(m, "/")
	key(m, "SHOP")
	assert.Equal(t, []string{"Big Shop", "Small Shop"}, names(m.rows))
	key(m, "q")
	assert.Equal(t, "SHOPq", m.search.Value())
	key(m, "esc")
	assert.Equal(t, modeList, m.mode)
	assert.Len(t, m.rows, 3)
}

func TestRollbackShowsError(t *testing.T) {
	m, _ := newModel(t)
	gone := shop("Shop A", "1", time.Now())

	m.Update(events.StoreMsg{Event: store.Event{
		Kind:   store.EventRolledBack,
		Op:     store.OpAdd,
		Member: gone,
		Err:    errors.New("disk full"),
	}})
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "disk full")

	m.Update(events.StoreMsg{Event: store.Event{Kind: store.EventPersisted, Op: store.OpResync}})
	assert.True(t, m.statusErr)
	assert.Contains(t, m.View(), "Shop A")
}
