package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StreamDelta is one increment of a streamed completion.
type StreamDelta struct {
	Content string
	Done    bool
	Error   string
}

// Message is one turn in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type Completion struct {
	Content string
}

// Provider defines the interface for the completion endpoint.
type Provider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
	StreamCompletion(ctx context.Context, req *CompletionRequest, ch chan<- StreamDelta) error
}

type openAIProvider struct {
	client *http.Client
	url    string
	apiKey string
}

// NewOpenAIProvider builds a provider for an OpenAI-compatible chat completion
// endpoint. url is the full completions URL.
func NewOpenAIProvider(url, apiKey string) Provider {
	return &openAIProvider{
		client: &http.Client{},
		url:    url,
		apiKey: apiKey,
	}
}

func (p *openAIProvider) newRequest(ctx context.Context, req *CompletionRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	return httpReq, nil
}

// Complete issues a non-streaming request and returns the full message body.
func (p *openAIProvider) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	req.Stream = false
	httpReq, err := p.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var payload struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("could not decode completion response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return nil, fmt.Errorf("completion response contained no choices")
	}
	return &Completion{Content: payload.Choices[0].Message.Content}, nil
}

// StreamCompletion consumes newline-delimited "data: {json}" frames until a
// terminal "data: [DONE]". Malformed frames are skipped silently: the upstream
// may emit keep-alives or partial frames, and tolerating them is part of the
// protocol. Transport failures are pushed into the channel so consumers see
// them in-band, and also returned.
func (p *openAIProvider) StreamCompletion(ctx context.Context, req *CompletionRequest, ch chan<- StreamDelta) error {
	defer close(ch)
	req.Stream = true
	httpReq, err := p.newRequest(ctx, req)
	if err != nil {
		ch <- StreamDelta{Error: err.Error()}
		return err
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		err = fmt.Errorf("completion request failed: %w", err)
		ch <- StreamDelta{Error: err.Error()}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		err = fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, string(bodyBytes))
		ch <- StreamDelta{Error: err.Error()}
		return err
	}

	type chunkPayload struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}
		var chunk chunkPayload
		if err := json.Unmarshal([]byte(data), &chunk); err != nil || len(chunk.Choices) == 0 {
			continue
		}
		select {
		case ch <- StreamDelta{Content: chunk.Choices[0].Delta.Content}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		// A canceled context surfaces as a read error; the consumer already
		// observes cancellation through its own context.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ch <- StreamDelta{Error: err.Error()}
		return err
	}

	select {
	case ch <- StreamDelta{Done: true}:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
