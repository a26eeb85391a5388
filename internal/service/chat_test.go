package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/clompanion/internal/adapter/llm"
	"github.com/xiaot623/clompanion/internal/config"
	"github.com/xiaot623/clompanion/internal/domain"
	"github.com/xiaot623/clompanion/internal/policy"
	"github.com/xiaot623/clompanion/internal/repository"
	"github.com/xiaot623/clompanion/tests/helpers"
)

// recordingGenerator captures requests and replies with a fixed text or error.
type recordingGenerator struct {
	mu       sync.Mutex
	requests []*llm.GenerateRequest
	reply    string
	err      error
}

func (g *recordingGenerator) Generate(ctx context.Context, req *llm.GenerateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

// blockingGenerator waits for its context to end.
type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, req *llm.GenerateRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type stubSupplier struct {
	doc *domain.ContextDocument
	err error
}

func (s stubSupplier) Fetch(ctx context.Context) (*domain.ContextDocument, error) {
	return s.doc, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		LLMTimeout:       time.Second,
		ContextTimeout:   time.Second,
		MaxMessageLength: 200,
	}
}

func newTestService(t *testing.T, store repository.Store, gen llm.Generator) *Service {
	t.Helper()
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	return New(store, gen, nil, testConfig(), engine)
}

func strPtr(s string) *string { return &s }

func TestHandleMessageNewSession(t *testing.T) {
	ctx := context.Background()
	store := helpers.NewTestMemoryStore(t)
	gen := &recordingGenerator{reply: "Hi!"}
	svc := newTestService(t, store, gen)

	reply, err := svc.HandleMessage(ctx, ChatRequest{Message: strPtr("  Hello  ")})
	require.NoError(t, err)
	assert.NotEmpty(t, reply.SessionID)
	assert.Equal(t, "Hi!", reply.Response)
	assert.NotEmpty(t, reply.MessageID)

	history, err := svc.GetHistory(ctx, reply.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "Hello", history[0].Content)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.Equal(t, reply.MessageID, history[1].ID)
	assert.False(t, history[1].CreatedAt.Before(history[0].CreatedAt))

	require.Len(t, gen.requests, 1)
	assert.Equal(t, "Hello", gen.requests[0].Prompt)
	assert.Empty(t, gen.requests[0].History)
}

func TestHandleMessageKeepsSuppliedSessionAndForwardsHistory(t *testing.T) {
	ctx := context.Background()
	gen := &recordingGenerator{reply: "ok"}
	svc := newTestService(t, helpers.NewTestMemoryStore(t), gen)

	for i, text := range []string{"first", "Second Turn"} {
		reply, err := svc.HandleMessage(ctx, ChatRequest{Message: strPtr(text), SessionID: "chat-42"})
		require.NoError(t, err, "turn %d", i)
		assert.Equal(t, "chat-42", reply.SessionID)
	}

	require.Len(t, gen.requests, 2)
	second := gen.requests[1]
	assert.Equal(t, "Second Turn", second.Prompt, "prompt keeps original case")
	require.Len(t, second.History, 2)
	assert.Equal(t, "first", second.History[0].Content)
	assert.Equal(t, domain.RoleAssistant, second.History[1].Role)

	history, err := svc.GetHistory(ctx, "chat-42")
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestHandleMessageValidation(t *testing.T) {
	ctx := context.Background()
	store := helpers.NewTestMemoryStore(t)
	gen := &recordingGenerator{reply: "unused"}
	svc := newTestService(t, store, gen)

	cases := map[string]ChatRequest{
		"missing":    {},
		"empty":      {Message: strPtr("")},
		"whitespace": {Message: strPtr(" \n\t ")},
		"too long":   {Message: strPtr(strings.Repeat("a", 201))},
	}
	for name, req := range cases {
		_, err := svc.HandleMessage(ctx, req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}

	assert.Empty(t, gen.requests)
	sessions, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions, "rejected input must not create sessions")
}

func TestHandleMessageGenerationFailureLeavesUserTurn(t *testing.T) {
	ctx := context.Background()
	gen := &recordingGenerator{err: errors.New("connection refused")}
	svc := newTestService(t, helpers.NewTestMemoryStore(t), gen)

	_, err := svc.HandleMessage(ctx, ChatRequest{Message: strPtr("Hello"), SessionID: "s1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)

	history, err := svc.GetHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.RoleUser, history[0].Role)
}

func TestHandleMessageEmptyReplyIsUpstreamError(t *testing.T) {
	svc := newTestService(t, helpers.NewTestMemoryStore(t), &recordingGenerator{reply: "   "})

	_, err := svc.HandleMessage(context.Background(), ChatRequest{Message: strPtr("Hello")})
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestHandleMessageGenerationTimeout(t *testing.T) {
	store := helpers.NewTestMemoryStore(t)
	cfg := testConfig()
	cfg.LLMTimeout = 20 * time.Millisecond
	svc := New(store, blockingGenerator{}, nil, cfg, nil)

	start := time.Now()
	_, err := svc.HandleMessage(context.Background(), ChatRequest{Message: strPtr("Hello")})
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHandleMessageContextDocument(t *testing.T) {
	ctx := context.Background()
	doc := &domain.ContextDocument{Source: "profile.json", Data: map[string]any{"name": "Ada"}}
	gen := &recordingGenerator{reply: "ok"}
	svc := New(helpers.NewTestMemoryStore(t), gen, stubSupplier{doc: doc}, testConfig(), nil)

	_, err := svc.HandleMessage(ctx, ChatRequest{Message: strPtr("Hello")})
	require.NoError(t, err)
	require.Len(t, gen.requests, 1)
	assert.Same(t, doc, gen.requests[0].Context)
}

func TestHandleMessageContextFailureProceeds(t *testing.T) {
	ctx := context.Background()
	gen := &recordingGenerator{reply: "ok"}
	svc := New(helpers.NewTestMemoryStore(t), gen, stubSupplier{err: errors.New("file not found")}, testConfig(), nil)

	reply, err := svc.HandleMessage(ctx, ChatRequest{Message: strPtr("Hello")})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Response)
	require.Len(t, gen.requests, 1)
	assert.Nil(t, gen.requests[0].Context)
}

func TestHandleMessageWithSQLiteStore(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, helpers.NewTestSQLiteStore(t), llm.NewMockClient())

	reply, err := svc.HandleMessage(ctx, ChatRequest{Message: strPtr("Hello")})
	require.NoError(t, err)

	history, err := svc.GetHistory(ctx, reply.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, reply.Response, history[1].Content)
}

func TestConcurrentTurnsSameSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, helpers.NewTestMemoryStore(t), llm.NewMockClient())

	const turns = 40
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.HandleMessage(ctx, ChatRequest{Message: strPtr(fmt.Sprintf("msg %d", i)), SessionID: "busy"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := svc.GetHistory(ctx, "busy")
	require.NoError(t, err)
	assert.Len(t, history, 2*turns)

	users := 0
	for _, m := range history {
		if m.Role == domain.RoleUser {
			users++
		}
	}
	assert.Equal(t, turns, users)
}

func TestConcurrentTurnsDistinctSessions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, helpers.NewTestMemoryStore(t), llm.NewMockClient())

	var wg sync.WaitGroup
	for _, id := range []string{"alpha", "beta"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_, err := svc.HandleMessage(ctx, ChatRequest{Message: strPtr(id), SessionID: id})
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"alpha", "beta"} {
		history, err := svc.GetHistory(ctx, id)
		require.NoError(t, err)
		require.Len(t, history, 40)
		for i, m := range history {
			if m.Role == domain.RoleUser {
				assert.Equal(t, id, m.Content)
				require.Less(t, i+1, len(history))
				assert.Equal(t, domain.RoleAssistant, history[i+1].Role)
			}
		}
	}
}

// deletingGenerator clears the session while the reply is being generated.
type deletingGenerator struct {
	store repository.Store
}

func (g deletingGenerator) Generate(ctx context.Context, req *llm.GenerateRequest) (string, error) {
	if err := g.store.Delete(ctx, "s1"); err != nil {
		return "", err
	}
	return "too late", nil
}

func TestHandleMessageSessionDeletedMidTurn(t *testing.T) {
	store := helpers.NewTestMemoryStore(t)
	svc := newTestService(t, store, deletingGenerator{store: store})

	_, err := svc.HandleMessage(context.Background(), ChatRequest{Message: strPtr("Hello"), SessionID: "s1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "session deleted during turn")
}
