package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Chat exposes the completion capability used for answer synthesis, in both
// blocking and streaming form.
type Chat struct {
	client *genai.Client
	model  string
}

func NewChat(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Chat, error) {
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Chat{client: client, model: model}, nil
}

func (c *Chat) Complete(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		slog.ErrorContext(ctx, "completion failed", "error", err, "model", c.model)
		return "", err
	}
	return flatten(resp)
}

// CompleteStream forwards model output fragments to the returned channel.
// The channel closes when the model finishes, errors, or ctx is cancelled.
func (c *Chat) CompleteStream(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		model := c.client.GenerativeModel(c.model)
		iter := model.GenerateContentStream(ctx, genai.Text(prompt))
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				slog.ErrorContext(ctx, "completion stream failed", "error", err, "model", c.model)
				errc <- err
				return
			}

			fragment, err := flatten(resp)
			if err != nil {
				errc <- err
				return
			}
			select {
			case out <- fragment:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errc
}

func (c *Chat) Close() error {
	return c.client.Close()
}

func flatten(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty completion response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}
