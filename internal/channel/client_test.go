package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/travelagi/dashboard/internal/model/chat"
	"github.com/travelagi/dashboard/internal/model/persona"
)

func newEventServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientDispatchesChatAndPersona(t *testing.T) {
	srv := newEventServer(t,
		`{"event": "chat-message", "data": {"role": "user", "message": "hi"}}`,
		`{"event": "chat-message", "data": {"role": "agent", "message": "hello"}}`,
		`{"event": "userPersona", "data": {"userPersona": "{\"mealBookedPercentage\":80}"}}`,
	)
	defer srv.Close()

	chatCh := make(chan chat.Message, 4)
	personaCh := make(chan json.RawMessage, 1)

	client := NewClient(DefaultOptions(wsURL(srv)), Handlers{
		OnChatMessage: func(msg chat.Message) { chatCh <- msg },
		OnPersona:     func(raw json.RawMessage) { personaCh <- raw },
	})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	var messages []chat.Message
	for len(messages) < 2 {
		select {
		case msg := <-chatCh:
			messages = append(messages, msg)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for chat messages")
		}
	}
	if messages[0].Role != chat.RoleUser || messages[0].Message != "hi" {
		t.Fatalf("unexpected first message: %+v", messages[0])
	}
	if messages[1].Role != chat.RoleAgent || messages[1].Message != "hello" {
		t.Fatalf("arrival order not preserved: %+v", messages[1])
	}

	select {
	case raw := <-personaCh:
		p, err := persona.Decode(raw)
		if err != nil {
			t.Fatalf("persona payload not decodable: %v", err)
		}
		if p.MealBookedPercentage == nil || *p.MealBookedPercentage != 80 {
			t.Fatalf("unexpected persona: %+v", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for persona event")
	}
}

func TestClientSkipsBadFrames(t *testing.T) {
	srv := newEventServer(t,
		`not even json`,
		`{"event": "chat-message", "data": {"role": "alien", "message": "??"}}`,
		`{"event": "something-else", "data": {}}`,
		`{"event": "chat-message", "data": {"role": "user", "message": "still here"}}`,
	)
	defer srv.Close()

	chatCh := make(chan chat.Message, 4)
	client := NewClient(DefaultOptions(wsURL(srv)), Handlers{
		OnChatMessage: func(msg chat.Message) { chatCh <- msg },
	})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	select {
	case msg := <-chatCh:
		if msg.Message != "still here" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the valid message")
	}

	select {
	case msg := <-chatCh:
		t.Fatalf("bad frame dispatched: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseDetachesHandlers(t *testing.T) {
	called := false
	client := NewClient(DefaultOptions("ws://unused"), Handlers{
		OnChatMessage: func(chat.Message) { called = true },
	})

	client.Close()
	client.dispatch([]byte(`{"event": "chat-message", "data": {"role": "user", "message": "late"}}`))

	if called {
		t.Fatal("handler fired after Close")
	}
}

func TestRunReturnsAfterClose(t *testing.T) {
	srv := newEventServer(t)
	defer srv.Close()

	client := NewClient(DefaultOptions(wsURL(srv)), Handlers{})

	done := make(chan error, 1)
	go func() { done <- client.Run(context.Background()) }()

	// Give the client a moment to establish the connection, then tear down.
	time.Sleep(100 * time.Millisecond)
	client.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned err after Close: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
