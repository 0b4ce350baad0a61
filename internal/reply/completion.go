package reply

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/isdelr/replydesk/internal/metrics"
)

const maxCompletionBody = 1 << 20

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// completionResult is the outcome of one upstream call: text on success, Err otherwise.
type completionResult struct {
	Text string
	Err  error
}

func (r completionResult) ok() bool {
	return r.Err == nil
}

func failed(format string, args ...any) completionResult {
	return completionResult{Err: fmt.Errorf(format, args...)}
}

// complete issues a single chat-completion request bounded by the configured timeout.
func (g *Generator) complete(ctx context.Context, prompt string) completionResult {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(completionRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: g.cfg.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: g.cfg.MaxTokens,
	})
	if err != nil {
		return failed("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return failed("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	start := time.Now()
	resp, err := g.client.Do(req)
	metrics.ObserveCompletion(time.Since(start))
	if err != nil {
		return failed("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxCompletionBody))
		return failed("completion endpoint returned status %d", resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCompletionBody)).Decode(&parsed); err != nil {
		return failed("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == nil {
		return completionResult{Err: errors.New("completion response has no message content")}
	}

	text := strings.TrimSpace(*parsed.Choices[0].Message.Content)
	if text == "" {
		return completionResult{Err: errors.New("completion response content is empty")}
	}
	return completionResult{Text: text}
}
