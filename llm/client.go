package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/safetyserv/safetyserv/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client - a chat client for any OpenAI-compatible server. Ollama serves this API under /v1.
type Client struct {
	client openai.Client
	model  string
}

func NewClient(cnf *config.InstanceConfig, additionalClientOptions ...option.RequestOption) *Client {
	options := append([]option.RequestOption{
		option.WithBaseURL(cnf.LlmApiUrl),
		option.WithAPIKey(cnf.LlmApiKey),
	}, additionalClientOptions...)
	return &Client{
		client: openai.NewClient(options...),
		model:  cnf.LlmChatModel,
	}
}

func (c *Client) Model() string {
	return c.model
}

// Chat - sends the whole message history and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		case RoleUser:
			params = append(params, openai.UserMessage(m.Content))
		case RoleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		default:
			return "", fmt.Errorf("unsupported message role '%s'", m.Role)
		}
	}

	res, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: params,
	})
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return res.Choices[0].Message.Content, nil
}

// Generate - a single-turn completion of the prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}})
}
