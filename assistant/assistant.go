// Package assistant answers staff questions about the loan book by letting a
// chat-completion model call a fixed set of read-only tools.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/Visionatedigital/M-and-T/authz"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel               = "gpt-4o-mini"
	DefaultMaxCompletionTokens = 1000
)

const systemPrompt = `You are the financial assistant of a microfinance loan back-office. Staff ask you about:
- loan applications and their status
- clients and their details
- portfolio statistics
- the loan history of a particular client

Answer concisely and professionally. Amounts are in UGX; write them with thousands separators.
Point out anything a loan officer should act on. Use the tools whenever the answer depends on current data,
and say which data you are looking up.`

// Completer is the part of the chat-completion client the assistant uses.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type Config struct {
	Model               string
	MaxCompletionTokens int
}

type Assistant struct {
	client    Completer
	tools     *Registry
	model     string
	maxTokens int
}

// New builds an assistant. A nil client leaves it unconfigured: every Ask
// fails with apperr.ErrUpstream.
func New(client Completer, tools *Registry, cfg Config) *Assistant {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxCompletionTokens <= 0 {
		cfg.MaxCompletionTokens = DefaultMaxCompletionTokens
	}
	return &Assistant{
		client:    client,
		tools:     tools,
		model:     cfg.Model,
		maxTokens: cfg.MaxCompletionTokens,
	}
}

// Ask answers the last message of history. The model sees the whole
// history behind the system prompt. If it asks for tools, they run and a
// second completion without tools produces the answer, so a request costs
// one or two upstream calls.
func (a *Assistant) Ask(ctx context.Context, caller *authz.Caller, history []Message) (string, error) {
	if err := authz.RequireStaff(caller); err != nil {
		return "", err
	}
	if len(history) == 0 {
		return "", fmt.Errorf("no messages: %w", apperr.ErrInvalidArgument)
	}
	if a.client == nil {
		return "", fmt.Errorf("assistant is not configured: %w", apperr.ErrUpstream)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	reply, err := a.complete(ctx, openai.ChatCompletionRequest{
		Model:               a.model,
		Messages:            messages,
		Tools:               a.tools.Definitions(),
		ToolChoice:          "auto",
		MaxCompletionTokens: a.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(reply.ToolCalls) == 0 {
		return reply.Content, nil
	}

	for _, call := range reply.ToolCalls {
		if !a.tools.Has(call.Function.Name) {
			return "", fmt.Errorf("tool %q: %w", call.Function.Name, apperr.ErrUnknownTool)
		}
	}

	messages = append(messages, reply)
	for _, call := range reply.ToolCalls {
		result, err := a.tools.Call(ctx, call.Function.Name, call.Function.Arguments)
		if err != nil {
			return "", err
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    result,
			ToolCallID: call.ID,
		})
	}

	final, err := a.complete(ctx, openai.ChatCompletionRequest{
		Model:               a.model,
		Messages:            messages,
		MaxCompletionTokens: a.maxTokens,
	})
	if err != nil {
		return "", err
	}
	return final.Content, nil
}

func (a *Assistant) complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionMessage, error) {
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return openai.ChatCompletionMessage{}, err
		}
		log.Printf("Chat completion failed: %v", err)
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion: %w: %w", apperr.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion returned no choices: %w", apperr.ErrUpstream)
	}
	return resp.Choices[0].Message, nil
}
