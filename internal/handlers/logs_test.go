package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/portside-sh/portside/internal/testutil"
)

func TestContainerLogsFollowWebSocket(t *testing.T) {
	t.Parallel()
	env := testutil.Setup(t)
	session := env.Login(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(env.Server.URL, "http") +
		"/api/containers/web/logs?follow=true"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Cookie": {"session_id=" + session}},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageText {
		t.Errorf("message type = %v, want text", typ)
	}
	if !strings.Contains(string(data), "mock:") {
		t.Errorf("unexpected log line %q", data)
	}
}

func TestContainerLogsFollowRequiresSession(t *testing.T) {
	t.Parallel()
	env := testutil.Setup(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(env.Server.URL, "http") +
		"/api/containers/web/logs?follow=true"
	_, resp, err := websocket.Dial(ctx, wsURL, nil)
	if err == nil {
		t.Fatal("anonymous websocket dial should fail")
	}
	if resp != nil && resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", resp.StatusCode)
	}
}
