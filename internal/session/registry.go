package session

import (
	"context"
	"log"
	"sync"

	"clarity-gateway/internal/ledger"
)

// Client is the per-client chat state the gateway keeps in memory: the auth
// flag, the session reconciler and the skill ledger. It lives as long as
// the gateway process, mirroring the lifetime of the original chat
// interface instance.
type Client struct {
	ID         string
	Auth       *AuthState
	Reconciler *Reconciler
	Ledger     *ledger.Ledger

	mu        sync.Mutex
	exchanges int
}

// BumpAnonExchanges counts one completed anonymous exchange and reports
// whether the UI should prompt for signup (every third exchange).
func (c *Client) BumpAnonExchanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges++
	return c.exchanges%3 == 0
}

// Registry owns all per-client state, creating entries on first sight of a
// client id. It wires each client's AuthState to its Reconciler: a token
// appearing triggers the replay, a token clearing triggers logout cleanup.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*Client

	buffer BufferStore
	chat   ChatStore
	notify Notifier
}

func NewRegistry(buffer BufferStore, chat ChatStore, notify Notifier) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		buffer:  buffer,
		chat:    chat,
		notify:  notify,
	}
}

// Client returns the state for clientID, creating it when absent.
func (g *Registry) Client(clientID string) *Client {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cl, ok := g.clients[clientID]; ok {
		return cl
	}

	cl := &Client{
		ID:         clientID,
		Auth:       NewAuthState(),
		Reconciler: NewReconciler(clientID, g.buffer, g.chat, g.notify),
		Ledger:     ledger.New(),
	}
	cl.Auth.Subscribe(func(token string) {
		if token == "" {
			cl.Reconciler.Logout(context.Background())
			return
		}
		if _, err := cl.Reconciler.Authenticate(context.Background(), token); err != nil {
			log.Printf("client %s: auth transition failed: %v", clientID, err)
		}
	})
	g.clients[clientID] = cl
	return cl
}
