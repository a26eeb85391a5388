package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/clompanion/internal/adapter/llm"
	"github.com/xiaot623/clompanion/internal/config"
	"github.com/xiaot623/clompanion/internal/policy"
	"github.com/xiaot623/clompanion/internal/service"
	transport "github.com/xiaot623/clompanion/internal/transport/http"
	"github.com/xiaot623/clompanion/tests/helpers"
)

func startServer(t *testing.T) (string, *service.Service) {
	t.Helper()

	cfg := &config.Config{LLMTimeout: time.Second, MaxMessageLength: 20}
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	svc := service.New(helpers.NewTestMemoryStore(t), llm.NewMockClient(), nil, cfg, engine)

	srv := httptest.NewServer(transport.NewServer(svc, cfg))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", svc
}

func TestChatClientSessionFlow(t *testing.T) {
	url, svc := startServer(t)

	client, err := NewChatClient(url, "")
	require.NoError(t, err)
	defer client.Close()

	first, err := client.Send("Hello")
	require.NoError(t, err)
	require.NotEmpty(t, first.SessionID)

	second, err := client.Send("Again")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	history, err := svc.GetHistory(context.Background(), first.SessionID)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestChatClientResumesSession(t *testing.T) {
	url, _ := startServer(t)

	client, err := NewChatClient(url, "resume-me")
	require.NoError(t, err)
	defer client.Close()

	reply, err := client.Send("Hello")
	require.NoError(t, err)
	assert.Equal(t, "resume-me", reply.SessionID)
}

func TestChatClientRun(t *testing.T) {
	url, _ := startServer(t)

	client, err := NewChatClient(url, "repl")
	require.NoError(t, err)
	defer client.Close()

	in := strings.NewReader("Hello\n\n" + strings.Repeat("z", 30) + "\n/session\n/quit\nnever sent\n")
	var out bytes.Buffer
	require.NoError(t, client.Run(in, &out))

	text := out.String()
	assert.Contains(t, text, "[MOCK]")
	assert.Contains(t, text, "error: invalid_input")
	assert.Contains(t, text, "session: repl")
	assert.Contains(t, text, "Bye!")
	assert.NotContains(t, text, "never sent")
}

func TestChatClientMalformedErrorFrame(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","request_id":"req_1","code":5}`))
		conn.ReadMessage()
	}))
	defer srv.Close()

	client, err := NewChatClient("ws"+strings.TrimPrefix(srv.URL, "http"), "")
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Send("Hello")
	require.Error(t, err)
	var replyErr *ReplyError
	assert.False(t, errors.As(err, &replyErr))
	assert.Contains(t, err.Error(), "unmarshal error frame")
}
