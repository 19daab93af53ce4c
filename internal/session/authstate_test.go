package session

import (
	"testing"
)

func TestAuthState_NotifiesInSubscriptionOrder(t *testing.T) {
	a := NewAuthState()
	var order []string

	a.Subscribe(func(token string) { order = append(order, "first:"+token) })
	a.Subscribe(func(token string) { order = append(order, "second:"+token) })

	a.Set("tok")

	if len(order) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(order))
	}
	if order[0] != "first:tok" || order[1] != "second:tok" {
		t.Errorf("Listeners fired out of order: %v", order)
	}
}

func TestAuthState_SameValueDoesNotRefire(t *testing.T) {
	a := NewAuthState()
	calls := 0
	a.Subscribe(func(string) { calls++ })

	a.Set("tok")
	a.Set("tok")

	if calls != 1 {
		t.Errorf("Expected exactly 1 notification, got %d", calls)
	}
}

func TestAuthState_Unsubscribe(t *testing.T) {
	a := NewAuthState()
	calls := 0
	cancel := a.Subscribe(func(string) { calls++ })

	a.Set("tok")
	cancel()
	a.Set("")

	if calls != 1 {
		t.Errorf("Expected 1 notification after unsubscribe, got %d", calls)
	}
}

func TestAuthState_TokenAndAuthenticated(t *testing.T) {
	a := NewAuthState()
	if a.Authenticated() {
		t.Error("Fresh state must be anonymous")
	}

	a.Set("tok")
	if !a.Authenticated() || a.Token() != "tok" {
		t.Errorf("Expected authenticated with tok, got %q", a.Token())
	}

	a.Set("")
	if a.Authenticated() {
		t.Error("Clearing the token must return to anonymous")
	}
}
