package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// chatModelCompleter sends the prompt as a single user message to an eino
// chat model.
type chatModelCompleter struct {
	chat model.BaseChatModel
}

func (c chatModelCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := c.chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("chat model generate: %w", err)
	}
	if out == nil {
		return "", errors.New("chat model returned no message")
	}
	return out.Content, nil
}

func NewOllama(ctx context.Context, baseURL, modelName string) (Completer, error) {
	chat, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: baseURL,
		Model:   modelName,
	})
	if err != nil {
		return nil, err
	}
	return chatModelCompleter{chat: chat}, nil
}

func NewOpenAI(ctx context.Context, apiKey, baseURL, modelName string, httpClient *http.Client) (Completer, error) {
	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Model:      modelName,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, err
	}
	return chatModelCompleter{chat: chat}, nil
}

func NewArk(ctx context.Context, apiKey, baseURL, endpointID string) (Completer, error) {
	chat, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   endpointID,
	})
	if err != nil {
		return nil, err
	}
	return chatModelCompleter{chat: chat}, nil
}

func NewDeepSeek(ctx context.Context, apiKey, baseURL, modelName string) (Completer, error) {
	chat, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   modelName,
	})
	if err != nil {
		return nil, err
	}
	return chatModelCompleter{chat: chat}, nil
}
