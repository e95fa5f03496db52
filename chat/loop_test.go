package chat

import (
	"context"
	"errors"
	"testing"

	"mongochat/models"
	"mongochat/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type generateCall struct {
	system  string
	query   string
	history []models.ChatTurn
}

// scriptedGenerator returns its responses in order. A non-nil entry in errs
// fails the call at that index.
type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     []generateCall
}

func (g *scriptedGenerator) Generate(ctx context.Context, systemPrompt, userQuery string, history []models.ChatTurn) (string, error) {
	i := len(g.calls)
	g.calls = append(g.calls, generateCall{system: systemPrompt, query: userQuery, history: append([]models.ChatTurn(nil), history...)})
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i >= len(g.responses) {
		return "", errors.New("no scripted response")
	}
	return g.responses[i], nil
}

type recordingExecutor struct {
	result service.Result
	calls  []service.Descriptor
}

func (e *recordingExecutor) Execute(ctx context.Context, d service.Descriptor) service.Result {
	e.calls = append(e.calls, d)
	return e.result
}

func TestExtractActionBlock(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"none", "Just an answer.", "", false},
		{"block", "Let me check.\n[MONGO_QUERY]\n{\"collection\": \"orders\"}\n[/MONGO_QUERY]", `{"collection": "orders"}`, true},
		{"first of two", "[MONGO_QUERY]a[/MONGO_QUERY] [MONGO_QUERY]b[/MONGO_QUERY]", "a", true},
		{"unterminated", "[MONGO_QUERY] {\"collection\": \"orders\"}", "", false},
		{"end before start", "[/MONGO_QUERY] text [MONGO_QUERY]", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractActionBlock(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_NoActionBlock(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"The orders collection stores purchases."}}
	exec := &recordingExecutor{}
	loop := NewLoop(gen, zap.NewNop())

	answer, err := loop.Run(context.Background(), "sys", "what is in orders?", nil, exec)

	require.NoError(t, err)
	assert.Equal(t, "The orders collection stores purchases.", answer.Text)
	assert.False(t, answer.ToolUsed)
	assert.Equal(t, 1, answer.ModelCalls)
	assert.Len(t, gen.calls, 1)
	assert.Empty(t, exec.calls)
}

func TestRun_InvalidJSON(t *testing.T) {
	first := "Checking.\n[MONGO_QUERY]\n{collection: orders,}\n[/MONGO_QUERY]"
	gen := &scriptedGenerator{responses: []string{first}}
	exec := &recordingExecutor{}
	loop := NewLoop(gen, zap.NewNop())

	answer, err := loop.Run(context.Background(), "sys", "count orders", nil, exec)

	require.NoError(t, err)
	assert.Equal(t, first+"\n\n"+InvalidFormatNotice, answer.Text)
	assert.False(t, answer.ToolUsed)
	assert.Len(t, gen.calls, 1)
	assert.Empty(t, exec.calls)
}

func TestRun_ToolCall(t *testing.T) {
	first := "[MONGO_QUERY]\n```json\n{\"collection\": \"orders\", \"action\": \"count\", \"query\": {}}\n```\n[/MONGO_QUERY]"
	gen := &scriptedGenerator{responses: []string{first, "There are 25 orders."}}
	exec := &recordingExecutor{result: service.Result{Action: service.ActionCount, Output: "Count: 25"}}
	loop := NewLoop(gen, zap.NewNop())
	history := []models.ChatTurn{{Role: models.RoleUser, Content: "hi"}, {Role: models.RoleAssistant, Content: "hello"}}

	answer, err := loop.Run(context.Background(), "sys", "how many orders?", history, exec)

	require.NoError(t, err)
	assert.Equal(t, "There are 25 orders.", answer.Text)
	assert.True(t, answer.ToolUsed)
	assert.Equal(t, "Count: 25", answer.ToolResult)
	assert.Equal(t, 2, answer.ModelCalls)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, "orders", exec.calls[0].Collection)
	assert.Equal(t, service.ActionCount, exec.calls[0].Action)

	require.Len(t, gen.calls, 2)
	second := gen.calls[1]
	assert.Equal(t, "sys", second.system)
	assert.Equal(t, "how many orders?", second.query)
	require.Len(t, second.history, 4)
	assert.Equal(t, models.ChatTurn{Role: models.RoleAssistant, Content: first}, second.history[2])
	assert.Equal(t, models.RoleUser, second.history[3].Role)
	assert.Equal(t, "Tool result:\nCount: 25\n\nNow answer the original question using this result.", second.history[3].Content)
}

func TestRun_ExecutorErrorIsData(t *testing.T) {
	first := `[MONGO_QUERY]{"collection": "nope", "action": "find"}[/MONGO_QUERY]`
	gen := &scriptedGenerator{responses: []string{first, "That collection does not exist."}}
	exec := &recordingExecutor{result: service.Result{
		Action: service.ActionFind,
		Err:    &service.ExecError{Kind: service.KindUnknownCollection, Message: `collection "nope" does not exist`},
	}}
	loop := NewLoop(gen, zap.NewNop())

	answer, err := loop.Run(context.Background(), "sys", "show nope", nil, exec)

	require.NoError(t, err)
	assert.Equal(t, "That collection does not exist.", answer.Text)
	assert.Equal(t, `Error (unknown_collection): collection "nope" does not exist`, answer.ToolResult)
	assert.Contains(t, gen.calls[1].history[1].Content, "Error (unknown_collection)")
}

func TestRun_FirstPassFails(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{errors.New("connection refused")}}
	loop := NewLoop(gen, zap.NewNop())

	_, err := loop.Run(context.Background(), "sys", "q", nil, &recordingExecutor{})

	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestRun_SecondPassFails(t *testing.T) {
	first := `[MONGO_QUERY]{"collection": "orders", "action": "count"}[/MONGO_QUERY]`
	gen := &scriptedGenerator{responses: []string{first}, errs: []error{nil, errors.New("rate limited")}}
	exec := &recordingExecutor{result: service.Result{Action: service.ActionCount, Output: "Count: 3"}}
	loop := NewLoop(gen, zap.NewNop())

	answer, err := loop.Run(context.Background(), "sys", "count", nil, exec)

	require.NoError(t, err)
	assert.Equal(t, first+"\n\n"+SecondPassNotice, answer.Text)
	assert.True(t, answer.ToolUsed)
	assert.Equal(t, "Count: 3", answer.ToolResult)
	assert.NotEmpty(t, answer.Warnings)
}
