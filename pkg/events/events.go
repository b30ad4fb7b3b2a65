package events

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rafabd1/vipmanager/internal/store"
)

// StoreMsg is sent to the TUI for every event published by the member store.
type StoreMsg struct {
	Event store.Event
}

// StoreClosedMsg is sent once the store's event channel has been closed.
type StoreClosedMsg struct{}

var _ tea.Msg = StoreMsg{}
var _ tea.Msg = StoreClosedMsg{}

// Forward relays store events to send until the channel closes. It is meant to
// run in its own goroutine with send set to (*tea.Program).Send.
func Forward(ch <-chan store.Event, send func(tea.Msg)) {
	for ev := range ch {
		send(StoreMsg{Event: ev})
	}
	send(StoreClosedMsg{})
}
