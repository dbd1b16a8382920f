// Package assistant answers judges' questions about a running session through
// an OpenAI-compatible language model.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the model questions are answered with
	DefaultModel = "llama-3.3-70b-versatile"
)

// ErrUnavailable wraps every failure of the language model
var ErrUnavailable = errors.New("assistant unavailable")

const askSystemPrompt = `You are a legal assistant AI helping judges analyze court proceedings.
You have access to the live transcript of the current session.
Answer questions accurately based only on the provided transcript.
If information is not in the transcript, clearly say so.
Be concise and professional.`

const summarySystemPrompt = `You are a professional court reporter generating an executive summary.
Only summarize and organize the facts presented.
Do not make judgments about guilt or innocence.`

// Client is the language model the bridge talks to
type Client interface {
	Ask(ctx context.Context, question, context string) (string, error)
	Summarize(ctx context.Context, material string) (string, error)
}

// OpenAI is a Client over any OpenAI-compatible chat completion API
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds a client. An empty baseURL or model falls back to the
// defaults. With no apiKey every call fails with ErrUnavailable.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	o := &OpenAI{model: model}
	if strings.TrimSpace(apiKey) != "" {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = baseURL
		o.client = openai.NewClientWithConfig(cfg)
	}
	return o
}

// Ask implements Client
func (o *OpenAI) Ask(ctx context.Context, question, sessionContext string) (string, error) {
	if sessionContext == "" {
		sessionContext = "No transcript available yet."
	}
	user := fmt.Sprintf("COURT SESSION TRANSCRIPT:\n%s\n\nQUESTION: %s\n\nProvide a clear, professional answer based on the transcript above.",
		sessionContext, question)
	return o.complete(ctx, askSystemPrompt, user, 0.3, 500)
}

// Summarize implements Client
func (o *OpenAI) Summarize(ctx context.Context, material string) (string, error) {
	user := "Generate an executive summary for this court proceeding covering the case overview, " +
		"key participants, main arguments, evidence, criminal background relevance and outstanding issues.\n\n" +
		material
	return o.complete(ctx, summarySystemPrompt, user, 0.2, 2000)
}

func (o *OpenAI) complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	if o.client == nil {
		return "", fmt.Errorf("%w: no api key configured", ErrUnavailable)
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
