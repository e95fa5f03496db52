package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mongochat/ai"
	"mongochat/models"
	"mongochat/service"

	"go.uber.org/zap"
)

const (
	InvalidFormatNotice = "[Query execution failed: invalid format]"
	SecondPassNotice    = "[Could not summarize the query result: the model request failed]"
)

// ErrModelUnavailable wraps a failed first model call.
var ErrModelUnavailable = errors.New("language model request failed")

// Generator produces one model response for a system prompt, prior turns and
// the user's query.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userQuery string, history []models.ChatTurn) (string, error)
}

// QueryExecutor runs one action descriptor.
type QueryExecutor interface {
	Execute(ctx context.Context, d service.Descriptor) service.Result
}

// Answer is the outcome of one loop run.
type Answer struct {
	Text       string
	ToolUsed   bool
	ToolResult string
	Warnings   []string
	ModelCalls int
}

// ExtractActionBlock returns the text between the first start marker and the
// following end marker. A start marker without an end marker is not a block.
func ExtractActionBlock(text string) (string, bool) {
	start := strings.Index(text, ai.ActionStartMarker)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(ai.ActionStartMarker):]
	end := strings.Index(rest, ai.ActionEndMarker)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// Loop implements the two-pass tool call: ask the model, run the action block
// it emitted if any, then ask again with the result.
type Loop struct {
	gen Generator
	log *zap.Logger
}

func NewLoop(gen Generator, log *zap.Logger) *Loop {
	return &Loop{gen: gen, log: log}
}

func (l *Loop) Run(ctx context.Context, systemPrompt, query string, history []models.ChatTurn, exec QueryExecutor) (Answer, error) {
	first, err := l.gen.Generate(ctx, systemPrompt, query, history)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	answer := Answer{Text: first, ModelCalls: 1}

	body, ok := ExtractActionBlock(first)
	if !ok {
		return answer, nil
	}

	l.log.Info("model requested a database action")
	descriptor, err := service.DecodeDescriptor(body)
	if err != nil {
		l.log.Warn("could not decode action block", zap.Error(err))
		answer.Text = first + "\n\n" + InvalidFormatNotice
		return answer, nil
	}

	result := exec.Execute(ctx, descriptor)
	answer.ToolUsed = true
	answer.ToolResult = result.Text()
	if !result.OK() {
		l.log.Warn("action failed, passing error to the model", zap.String("kind", string(result.Err.Kind)))
	}

	followUp := make([]models.ChatTurn, 0, len(history)+2)
	followUp = append(followUp, history...)
	followUp = append(followUp,
		models.ChatTurn{Role: models.RoleAssistant, Content: first},
		models.ChatTurn{Role: models.RoleUser, Content: ai.ToolResultMessage(answer.ToolResult)},
	)

	second, err := l.gen.Generate(ctx, systemPrompt, query, followUp)
	answer.ModelCalls++
	if err != nil {
		l.log.Error("second model pass failed", zap.Error(err))
		answer.Text = first + "\n\n" + SecondPassNotice
		answer.Warnings = append(answer.Warnings, "the answer could not be summarized from the query result")
		return answer, nil
	}
	answer.Text = second
	return answer, nil
}
