package session

import "sync"

// AuthState tracks presence of the backend credential token for one client
// and fans changes out to subscribers. Listeners run synchronously in
// subscription order, and only when the value actually changes, so the
// anonymous→authenticated transition fires exactly once per login.
type AuthState struct {
	mu        sync.Mutex
	token     string
	nextID    int
	listeners []authListener
}

type authListener struct {
	id int
	fn func(token string)
}

func NewAuthState() *AuthState {
	return &AuthState{}
}

func (a *AuthState) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *AuthState) Authenticated() bool {
	return a.Token() != ""
}

// Set records the credential and notifies subscribers. Setting "" is a
// logout. Re-setting the same value is a no-op.
func (a *AuthState) Set(token string) {
	a.mu.Lock()
	if token == a.token {
		a.mu.Unlock()
		return
	}
	a.token = token
	notify := make([]authListener, len(a.listeners))
	copy(notify, a.listeners)
	a.mu.Unlock()

	for _, l := range notify {
		l.fn(token)
	}
}

// Subscribe registers a listener and returns its unsubscribe function.
func (a *AuthState) Subscribe(fn func(token string)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextID
	a.nextID++
	a.listeners = append(a.listeners, authListener{id: id, fn: fn})

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		for i, l := range a.listeners {
			if l.id == id {
				a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
				return
			}
		}
	}
}
