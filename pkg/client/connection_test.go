package client

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/w3chat/w3chat-client/pkg/protocol"
)

// startChatServer runs a websocket endpoint that records the presented token
// and pushes the given frames to every client, then waits for inbound frames
// on the returned channel.
func startChatServer(t *testing.T, push []string) (*httptest.Server, chan string, chan string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	tokens := make(chan string, 1)
	received := make(chan string, 16)

	mux := http.NewServeMux()
	mux.HandleFunc(protocol.ChatPath, func(w http.ResponseWriter, r *http.Request) {
		tokens <- r.URL.Query().Get("token")
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer ws.Close()
		for _, frame := range push {
			if err := ws.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			received <- string(data)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, tokens, received
}

func TestConnectSendReceive(t *testing.T) {
	srv, tokens, received := startChatServer(t, []string{`{"type":"ack"}`})

	conn := NewConnection(srv.URL, time.Second)
	defer conn.Close()

	if err := conn.Connect("session-token"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if conn.State() != StateOpen {
		t.Fatalf("state = %v, want open", conn.State())
	}

	select {
	case token := <-tokens:
		if token != "session-token" {
			t.Errorf("token = %q", token)
		}
	case <-time.After(time.Second):
		t.Fatal("server saw no token")
	}

	select {
	case raw := <-conn.Incoming():
		frame, err := protocol.DecodeFrame(raw)
		if err != nil || frame.Type != protocol.TypeAck {
			t.Errorf("pushed frame = %s (%v)", raw, err)
		}
	case <-time.After(time.Second):
		t.Fatal("pushed frame not delivered")
	}

	if err := conn.Send(protocol.NewChat("0xaa:0xbb", "hi")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case raw := <-received:
		if raw != `{"type":"channel","channel":"0xaa:0xbb","data":"hi"}` {
			t.Errorf("server received %s", raw)
		}
	case <-time.After(time.Second):
		t.Fatal("server received nothing")
	}
}

func TestConnectTimeout(t *testing.T) {
	// A listener that accepts and stalls: the handshake never completes, so
	// only the timeout can resolve the connect.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			defer c.Close()
		}
	}()

	conn := NewConnection(fmt.Sprintf("ws://%s", ln.Addr()), 100*time.Millisecond)
	defer conn.Close()

	start := time.Now()
	err = conn.Connect("tok")
	if err == nil {
		t.Fatal("expected connect to fail")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("connect not resolved by timeout, took %s", elapsed)
	}
	if conn.State() != StateFailed {
		t.Errorf("state = %v, want failed", conn.State())
	}

	// Subsequent sends are refused without a panic or a stale handle.
	if err := conn.Send(protocol.NewPing()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send after timeout: got %v, want ErrNotConnected", err)
	}
}

func TestConnectRefused(t *testing.T) {
	// Grab a port with no listener behind it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	conn := NewConnection("ws://"+addr, time.Second)
	defer conn.Close()

	if err := conn.Connect("tok"); err == nil {
		t.Fatal("expected connect to fail")
	}
	if conn.State() != StateFailed {
		t.Errorf("state = %v, want failed", conn.State())
	}

	// Reconnection is an explicit new Connect; a failed attempt does not
	// poison the manager.
	srv, _, _ := startChatServer(t, nil)
	reconn := NewConnection(srv.URL, time.Second)
	defer reconn.Close()
	if err := reconn.Connect("tok"); err != nil {
		t.Fatalf("fresh connect after failure: %v", err)
	}
}

func TestDisconnectResolvesPendingConnect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			defer c.Close()
		}
	}()

	conn := NewConnection(fmt.Sprintf("ws://%s", ln.Addr()), 5*time.Second)
	defer conn.Close()

	results := make(chan error, 1)
	go func() { results <- conn.Connect("tok") }()

	// Let the dial get in flight, then close underneath it.
	time.Sleep(50 * time.Millisecond)
	conn.Disconnect()

	select {
	case err := <-results:
		if !errors.Is(err, ErrConnectionClosed) {
			t.Errorf("pending connect resolved with %v, want ErrConnectionClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending connect never resolved")
	}
	if conn.State() != StateClosed {
		t.Errorf("state = %v, want closed", conn.State())
	}
}

func TestCleanDisconnectIsNotAnError(t *testing.T) {
	srv, _, _ := startChatServer(t, nil)

	conn := NewConnection(srv.URL, time.Second)
	defer conn.Close()

	if err := conn.Connect("tok"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// Drain the Connecting/Open transitions.
	for i := 0; i < 2; i++ {
		select {
		case <-conn.StateChanges():
		case <-time.After(time.Second):
			t.Fatal("missing state transition")
		}
	}

	conn.Disconnect()

	select {
	case sc := <-conn.StateChanges():
		if sc.State != StateClosed {
			t.Errorf("state change = %v, want closed", sc.State)
		}
		if sc.Err != nil {
			t.Errorf("clean close carried error %v", sc.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("no closed transition")
	}

	select {
	case err := <-conn.Errors():
		t.Errorf("clean close surfaced transport error %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestServerCloseSurfacesError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc(protocol.ChatPath, func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.Close() // drop the client immediately
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := NewConnection(srv.URL, time.Second)
	defer conn.Close()

	if err := conn.Connect("tok"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case err := <-conn.Errors():
		if err == nil {
			t.Error("nil transport error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server-side close not surfaced")
	}
	if conn.State() != StateClosed {
		t.Errorf("state = %v, want closed", conn.State())
	}
}

func TestAlreadyConnecting(t *testing.T) {
	srv, _, _ := startChatServer(t, nil)

	conn := NewConnection(srv.URL, time.Second)
	defer conn.Close()

	if err := conn.Connect("tok"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := conn.Connect("tok"); !errors.Is(err, ErrAlreadyConnecting) {
		t.Errorf("second connect: got %v, want ErrAlreadyConnecting", err)
	}
}
