// Package session governs the lifecycle of one chat conversation across the
// anonymous→authenticated transition: buffering exchanges before a
// credential exists, replaying them into the chat store after login, and
// tracking the canonical session id thereafter.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"clarity-gateway/internal/models"
)

// State is the reconciler's position in the session lifecycle.
type State int

const (
	StateAnonymousEmpty State = iota
	StateAnonymousBuffering
	StateAuthTransitionPending
	StateAuthenticatedPersisted
)

func (s State) String() string {
	switch s {
	case StateAnonymousEmpty:
		return "anonymous_empty"
	case StateAnonymousBuffering:
		return "anonymous_buffering"
	case StateAuthTransitionPending:
		return "auth_transition_pending"
	case StateAuthenticatedPersisted:
		return "authenticated_persisted"
	default:
		return "unknown"
	}
}

// BufferStore holds a client's pre-auth transcript and current-session
// pointer. SaveBuffer rewrites the whole slot on every call.
type BufferStore interface {
	LoadBuffer(ctx context.Context, clientID string) ([]models.BufferedMessage, error)
	SaveBuffer(ctx context.Context, clientID string, msgs []models.BufferedMessage) error
	ClearBuffer(ctx context.Context, clientID string) error
	CurrentSession(ctx context.Context, clientID string) (string, error)
	SetCurrentSession(ctx context.Context, clientID, sessionID string) error
	ClearCurrentSession(ctx context.Context, clientID string) error
}

// ChatStore is the slice of the chat backend the reconciler needs.
type ChatStore interface {
	SaveExchange(ctx context.Context, token string, req models.SaveExchangeRequest) (*models.Session, error)
	GetSession(ctx context.Context, token, sessionID string) (*models.Session, error)
}

// Notifier delivers background warnings that must not interrupt the
// conversation. May be nil.
type Notifier interface {
	NotifyWarning(clientID, code, message string)
}

// Reconciler owns the session state for one client.
type Reconciler struct {
	mu        sync.Mutex
	clientID  string
	state     State
	sessionID string
	replayed  bool // replay is at-most-once per login event

	buffer BufferStore
	chat   ChatStore
	notify Notifier
}

func NewReconciler(clientID string, buffer BufferStore, chat ChatStore, notify Notifier) *Reconciler {
	return &Reconciler{
		clientID: clientID,
		state:    StateAnonymousEmpty,
		buffer:   buffer,
		chat:     chat,
		notify:   notify,
	}
}

func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reconciler) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

// RecordExchange routes one completed exchange to the right persistence
// path. Without a token the pair is appended to the local buffer; with one
// it is saved immediately and independently. Failures on either path are
// background warnings only: the exchange already appeared in the visible
// transcript and nothing here may block it.
func (r *Reconciler) RecordExchange(ctx context.Context, token, userContent, aiContent, persona string) {
	if token == "" {
		r.bufferExchange(ctx, userContent, aiContent, persona)
		return
	}
	r.persistExchange(ctx, token, userContent, aiContent, persona)
}

func (r *Reconciler) bufferExchange(ctx context.Context, userContent, aiContent, persona string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs, err := r.buffer.LoadBuffer(ctx, r.clientID)
	if err != nil {
		r.warn("BUFFER_READ_FAILED", err)
		msgs = nil
	}

	now := time.Now().UTC()
	msgs = append(msgs,
		models.BufferedMessage{Type: "user", Content: userContent, Timestamp: now, Role: persona},
		models.BufferedMessage{Type: "ai", Content: aiContent, Timestamp: now, Role: persona},
	)

	if err := r.buffer.SaveBuffer(ctx, r.clientID, msgs); err != nil {
		r.warn("BUFFER_WRITE_FAILED", err)
		return
	}
	r.state = StateAnonymousBuffering
}

func (r *Reconciler) persistExchange(ctx context.Context, token, userContent, aiContent, persona string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, err := r.chat.SaveExchange(ctx, token, models.SaveExchangeRequest{
		Message:    userContent,
		AIResponse: aiContent,
		SessionID:  r.sessionID,
		IsNewChat:  r.sessionID == "",
		Role:       persona,
	})
	if err != nil {
		// No retry; the message already shows in the transcript.
		r.warn("SAVE_FAILED", err)
		return
	}

	r.sessionID = sess.ID
	r.state = StateAuthenticatedPersisted
	if err := r.buffer.SetCurrentSession(ctx, r.clientID, sess.ID); err != nil {
		r.warn("CURRENT_SESSION_WRITE_FAILED", err)
	}
}

// Authenticate runs the one-shot auth transition: buffered pairs are
// replayed sequentially in original order, the first successful save fixes
// the canonical session id for the rest, and the buffer is cleared
// unconditionally afterwards — even on partial failure — so a later login
// can never replay the same pairs twice. Returns the session the reconciler
// settled on, which is nil when nothing was buffered.
func (r *Reconciler) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replayed {
		return nil, nil
	}
	r.replayed = true

	msgs, err := r.buffer.LoadBuffer(ctx, r.clientID)
	if err != nil {
		r.state = StateAuthenticatedPersisted
		return nil, fmt.Errorf("failed to load buffered messages: %w", err)
	}
	if len(msgs) == 0 {
		r.state = StateAuthenticatedPersisted
		return nil, nil
	}

	r.state = StateAuthTransitionPending
	persona := bufferedPersona(msgs)

	var last *models.Session
	for i := 0; i+1 < len(msgs); i += 2 {
		user, ai := msgs[i], msgs[i+1]
		if user.Type != "user" || ai.Type != "ai" {
			log.Printf("replay: skipping malformed pair %d for client %s", i/2+1, r.clientID)
			continue
		}

		sess, err := r.chat.SaveExchange(ctx, token, models.SaveExchangeRequest{
			Message:    user.Content,
			AIResponse: ai.Content,
			SessionID:  r.sessionID,
			IsNewChat:  r.sessionID == "",
			Role:       persona,
		})
		if err != nil {
			r.warn("REPLAY_PAIR_FAILED", fmt.Errorf("pair %d: %w", i/2+1, err))
			continue
		}

		if r.sessionID == "" {
			r.sessionID = sess.ID
		}
		last = sess
	}

	// Cleared even when pairs failed, to avoid an infinite retry loop.
	if err := r.buffer.ClearBuffer(ctx, r.clientID); err != nil {
		r.warn("BUFFER_CLEAR_FAILED", err)
	}

	r.state = StateAuthenticatedPersisted
	if last != nil {
		if err := r.buffer.SetCurrentSession(ctx, r.clientID, last.ID); err != nil {
			r.warn("CURRENT_SESSION_WRITE_FAILED", err)
		}
	}
	return last, nil
}

// SelectSession rehydrates a previously persisted session from history and
// adopts its id as current, with no replay step.
func (r *Reconciler) SelectSession(ctx context.Context, token, sessionID string) (*models.Session, error) {
	sess, err := r.chat.GetSession(ctx, token, sessionID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessionID = sess.ID
	r.state = StateAuthenticatedPersisted
	r.mu.Unlock()

	if err := r.buffer.SetCurrentSession(ctx, r.clientID, sess.ID); err != nil {
		r.warn("CURRENT_SESSION_WRITE_FAILED", err)
	}
	return sess, nil
}

// Current returns the session named by the client's current-session slot,
// for restoring the transcript after a page reload. Nil when no session is
// recorded.
func (r *Reconciler) Current(ctx context.Context, token string) (*models.Session, error) {
	id, err := r.buffer.CurrentSession(ctx, r.clientID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	return r.SelectSession(ctx, token, id)
}

// Reset is the explicit "new chat" action: the next exchange starts a fresh
// session regardless of auth state.
func (r *Reconciler) Reset(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessionID = ""
	r.state = StateAnonymousEmpty
	if err := r.buffer.ClearBuffer(ctx, r.clientID); err != nil {
		r.warn("BUFFER_CLEAR_FAILED", err)
	}
	if err := r.buffer.ClearCurrentSession(ctx, r.clientID); err != nil {
		r.warn("CURRENT_SESSION_CLEAR_FAILED", err)
	}
}

// Logout drops the session reference and re-arms the replay for the next
// login event.
func (r *Reconciler) Logout(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessionID = ""
	r.state = StateAnonymousEmpty
	r.replayed = false
	if err := r.buffer.ClearBuffer(ctx, r.clientID); err != nil {
		r.warn("BUFFER_CLEAR_FAILED", err)
	}
	if err := r.buffer.ClearCurrentSession(ctx, r.clientID); err != nil {
		r.warn("CURRENT_SESSION_CLEAR_FAILED", err)
	}
}

// bufferedPersona picks the persona for a replay from the first AI entry
// that carries one, defaulting to mentor.
func bufferedPersona(msgs []models.BufferedMessage) string {
	for _, m := range msgs {
		if m.Type == "ai" && m.Role != "" {
			return m.Role
		}
	}
	return "mentor"
}

func (r *Reconciler) warn(code string, err error) {
	log.Printf("client %s: %s: %v", r.clientID, code, err)
	if r.notify != nil {
		r.notify.NotifyWarning(r.clientID, code, err.Error())
	}
}
