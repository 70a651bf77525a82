package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/safetyserv/safetyserv/llm"
)

const chatbotPromptTemplate = `다음 정보를 참고하여 질문에 답해주세요:

%s

질문: %s`

const documentPromptTemplate = `다음은 문서의 일부입니다:

%s

위 정보만을 사용하여 다음 질문에 답하세요:
질문: %s`

// Chatbot - a multi-turn conversation where each question is augmented with the most relevant documents.
type Chatbot struct {
	collection   *Collection
	results      int
	conversation *llm.Conversation
}

// NewChatbot - results <= 0 uses DefaultResults.
func NewChatbot(client *llm.Client, collection *Collection, results int) *Chatbot {
	return &Chatbot{
		collection:   collection,
		results:      results,
		conversation: client.NewConversation(llm.DocumentSystemPrompt),
	}
}

func (b *Chatbot) Ask(ctx context.Context, question string) (string, error) {
	matches, err := b.collection.Query(ctx, question, b.results)
	if err != nil {
		return "", err
	}
	return b.conversation.Ask(ctx, fmt.Sprintf(chatbotPromptTemplate, joinDocuments(matches), question))
}

func (b *Chatbot) Messages() []llm.Message {
	return b.conversation.Messages()
}

// AnswerFromDocument - single-turn question answering restricted to the most relevant documents.
func AnswerFromDocument(ctx context.Context, client *llm.Client, collection *Collection, question string, results int) (string, error) {
	matches, err := collection.Query(ctx, question, results)
	if err != nil {
		return "", err
	}
	return client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: llm.DocumentSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(documentPromptTemplate, joinDocuments(matches), question)},
	})
}

func joinDocuments(matches []Match) string {
	docs := make([]string, len(matches))
	for i, m := range matches {
		docs[i] = m.Document
	}
	return strings.Join(docs, "\n")
}
