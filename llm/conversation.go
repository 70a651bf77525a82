package llm

import (
	"context"
	"sync"
)

// Conversation - a multi-turn chat. Each Ask sends the full history so far.
type Conversation struct {
	client   *Client
	lock     sync.Mutex
	messages []Message
}

// NewConversation - starts a conversation, optionally with a system prompt (pass "" for none).
func (c *Client) NewConversation(systemPrompt string) *Conversation {
	messages := make([]Message, 0)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	return &Conversation{client: c, messages: messages}
}

// Ask - sends the user's message and records the reply. A failed turn leaves the history untouched.
func (c *Conversation) Ask(ctx context.Context, text string) (string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	attempt := append(c.messages[:len(c.messages):len(c.messages)], Message{Role: RoleUser, Content: text})
	reply, err := c.client.Chat(ctx, attempt)
	if err != nil {
		return "", err
	}
	c.messages = append(attempt, Message{Role: RoleAssistant, Content: reply})
	return reply, nil
}

// Messages - a copy of the history, system prompt included.
func (c *Conversation) Messages() []Message {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]Message{}, c.messages...)
}
