package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aiworkforce/dashboard-server-go/internal/model"
)

var ErrNotConfigured = errors.New("completion API key not configured")

type Message struct {
	Role    model.ChatRole `json:"role"`
	Content string         `json:"content"`
}

type Request struct {
	Model    string
	Messages []Message
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client streams chat completions from an OpenAI-compatible endpoint.
type Client struct {
	apiKey       string
	baseURL      string
	defaultModel string
	temperature  float64
	httpClient   *http.Client
}

func NewClient(apiKey, baseURL, defaultModel string, temperature float64, timeout time.Duration) *Client {
	return &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		temperature:  temperature,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Stream sends the conversation with streaming enabled. Content deltas arrive
// on the first channel; at most one error arrives on the second. Both channels
// are closed when the stream ends.
func (c *Client) Stream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	deltas := make(chan string, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errs)

		if err := c.stream(ctx, req, deltas); err != nil {
			errs <- err
		}
	}()

	return deltas, errs
}

func (c *Client) stream(ctx context.Context, req Request, deltas chan<- string) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	modelName := req.Model
	if modelName == "" {
		modelName = c.defaultModel
	}

	body, err := json.Marshal(completionRequest{
		Model:       modelName,
		Messages:    req.Messages,
		Temperature: c.temperature,
		Stream:      true,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("completion API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			log.Debug().Str("model", modelName).Dur("elapsed", time.Since(start)).Msg("completion stream finished")
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if chunk.Error != nil {
			return fmt.Errorf("completion API error: %s", chunk.Error.Message)
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			select {
			case deltas <- choice.Delta.Content:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read completion stream: %w", err)
	}
	return nil
}
