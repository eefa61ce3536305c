package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/docreview/internal/auth"
	"github.com/felixgeelhaar/docreview/internal/session"
)

// Bridge forwards navigation intents and session changes into a running
// program. It is created before the program so the loader can be wired
// first; messages sent before Attach are dropped.
type Bridge struct {
	mu       sync.Mutex
	attached bool
	queue    chan tea.Msg
}

// NewBridge creates an unattached Bridge.
func NewBridge() *Bridge {
	return &Bridge{queue: make(chan tea.Msg, 64)}
}

// Attach starts delivering to p, in the order messages were sent.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attached {
		return
	}
	b.attached = true
	go func() {
		for msg := range b.queue {
			p.Send(msg)
		}
	}()
}

// Close stops delivery. Later messages are dropped.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attached {
		close(b.queue)
		b.attached = false
	}
}

// Navigate implements auth.Navigator.
func (b *Bridge) Navigate(r auth.Route) {
	b.send(NavigateMsg{Route: r})
}

// SessionChanged is a session.Listener.
func (b *Bridge) SessionChanged(s session.Snapshot) {
	b.send(SessionChangedMsg{Snapshot: s})
}

// send is called from command goroutines, sometimes under the loader's
// lock; it only blocks while the queue is full.
func (b *Bridge) send(msg tea.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attached {
		b.queue <- msg
	}
}

// Run starts the panel and blocks until it quits.
func Run(m Model, b *Bridge, opts ...tea.ProgramOption) error {
	unsubscribe := m.deps.Session.Subscribe(b.SessionChanged)
	defer unsubscribe()

	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	b.Attach(p)
	defer b.Close()
	_, err := p.Run()
	return err
}

var _ auth.Navigator = (*Bridge)(nil)
