package client

import (
	"testing"
)

func TestBridgeRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	bridge := NewBridge(store, nil)

	notifications := map[string]ChannelRequestNotification{
		"0xaa:0xbb": {Channel: "0xaa:0xbb", From: "0xbb"},
	}
	bridge.SaveNotifications(notifications)

	notices := map[string]RejectionNotice{
		"id-1": {ID: "id-1", Message: "Channel request rejected by 0xbb"},
	}
	bridge.SaveRejectionNotices(notices)

	unread := map[string][]Message{
		"0xaa:0xbb": {{From: "0xbb", Body: "hi"}, {From: "0xbb", Body: "there"}},
	}
	bridge.SaveUnreadIndex(unread)

	bridge.SaveSession(Session{Token: "tok", Address: "0xaa"})

	reloaded := NewBridge(store, nil)

	gotNotifications := reloaded.LoadNotifications()
	if len(gotNotifications) != 1 || gotNotifications["0xaa:0xbb"].From != "0xbb" {
		t.Errorf("notifications = %+v", gotNotifications)
	}

	gotNotices := reloaded.LoadRejectionNotices()
	if len(gotNotices) != 1 {
		t.Fatalf("notices = %+v", gotNotices)
	}
	if gotNotices["id-1"].ID != "id-1" {
		t.Error("notice id not restored from its map key")
	}

	gotUnread := reloaded.LoadUnreadIndex()
	if len(gotUnread["0xaa:0xbb"]) != 2 {
		t.Fatalf("unread = %+v", gotUnread)
	}
	if gotUnread["0xaa:0xbb"][0].Body != "hi" || gotUnread["0xaa:0xbb"][1].Body != "there" {
		t.Error("unread order not preserved")
	}

	session, ok := reloaded.LoadSession()
	if !ok || session.Token != "tok" || session.Address != "0xaa" {
		t.Errorf("session = %+v (%v)", session, ok)
	}
}

func TestBridgeToleratesCorruptValues(t *testing.T) {
	store := NewMemoryStore()
	store.Set(keyNotifications, "{not json")
	store.Set(keyUnreadIndex, `[]`) // wrong shape
	store.Set(keySession, "{not json")

	bridge := NewBridge(store, nil)
	if n := bridge.LoadNotifications(); len(n) != 0 {
		t.Errorf("corrupt notifications = %+v", n)
	}
	if u := bridge.LoadUnreadIndex(); len(u) != 0 {
		t.Errorf("corrupt unread = %+v", u)
	}
	if _, ok := bridge.LoadSession(); ok {
		t.Error("corrupt session loaded")
	}
}

func TestBridgeMissingKeys(t *testing.T) {
	bridge := NewBridge(NewMemoryStore(), nil)
	if n := bridge.LoadNotifications(); n == nil || len(n) != 0 {
		t.Errorf("missing notifications = %+v", n)
	}
	if _, ok := bridge.LoadSession(); ok {
		t.Error("session loaded from empty store")
	}
}

func TestBridgeClears(t *testing.T) {
	store := NewMemoryStore()
	bridge := NewBridge(store, nil)
	bridge.SaveSession(Session{Token: "tok", Address: "0xaa"})
	bridge.SaveRejectionNotices(map[string]RejectionNotice{"id": {ID: "id", Message: "m"}})

	bridge.ClearSession()
	bridge.ClearRejectionNotices()

	if _, ok := bridge.LoadSession(); ok {
		t.Error("session survived clear")
	}
	if n := bridge.LoadRejectionNotices(); len(n) != 0 {
		t.Errorf("notices survived clear: %+v", n)
	}
}

func TestSessionWithoutTokenNotLoaded(t *testing.T) {
	store := NewMemoryStore()
	store.Set(keySession, `{"jwt":"","address":"0xaa"}`)
	if _, ok := NewBridge(store, nil).LoadSession(); ok {
		t.Error("tokenless session loaded")
	}
}
