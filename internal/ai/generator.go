// Package ai talks to the external text Generation Service. The game core
// treats it as a capability that may fail: callers bound every call with a
// context deadline and substitute deterministic fallback content on error,
// so game liveness never depends on a network call succeeding.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Generator produces the AI player's text.
type Generator interface {
	// GenerateAnswer writes one answer to the prompt, mimicking the humans'
	// just-submitted answers and any player-submitted style instructions.
	GenerateAnswer(ctx context.Context, prompt string, humanAnswers []string, styleInstructions string) (string, error)

	// GenerateQuestions produces count candidate prompts, optionally themed
	// around player-suggested topics.
	GenerateQuestions(ctx context.Context, topics []string, count int) ([]string, error)
}

// Client calls a messages-style HTTP completion endpoint.
type Client struct {
	apiKey   string
	endpoint string
	model    string
	http     *http.Client
}

// NewClient builds a Client. An empty apiKey is allowed; calls will fail and
// callers fall back to built-in content, which keeps local development
// working with no credentials at all.
func NewClient(apiKey, endpoint, model string) *Client {
	return &Client{
		apiKey:   apiKey,
		endpoint: endpoint,
		model:    model,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type completionResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) GenerateAnswer(ctx context.Context, prompt string, humanAnswers []string, styleInstructions string) (string, error) {
	system := "You are playing a party game where humans try to spot the one AI player. " +
		"Answer the question in one short, casual sentence. Blend in with the sample answers: " +
		"match their length, tone, punctuation habits and typo level. Never reveal you are an AI."
	if styleInstructions != "" {
		system += " Additional style hints from the players: " + styleInstructions
	}

	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(prompt)
	b.WriteString("\n\nAnswers the humans just gave:\n")
	for _, a := range humanAnswers {
		b.WriteString("- ")
		b.WriteString(a)
		b.WriteString("\n")
	}
	b.WriteString("\nWrite your own answer now. Reply with the answer text only.")

	text, err := c.complete(ctx, system, b.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) GenerateQuestions(ctx context.Context, topics []string, count int) ([]string, error) {
	system := "You write icebreaker questions for a party game. Questions must be open-ended, " +
		"answerable in one sentence, and require no specialist knowledge."

	var b strings.Builder
	fmt.Fprintf(&b, "Write %d questions, one per line, with no numbering.", count)
	if len(topics) > 0 {
		b.WriteString(" Themes suggested by the players: ")
		b.WriteString(strings.Join(topics, ", "))
		b.WriteString(".")
	}

	text, err := c.complete(ctx, system, b.String())
	if err != nil {
		return nil, err
	}

	questions := make([]string, 0, count)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*0123456789. "))
		if line != "" {
			questions = append(questions, line)
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("generation returned no questions")
	}
	return questions, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model:     c.model,
		MaxTokens: 512,
		System:    system,
		Messages:  []message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("generation request failed")
		return "", fmt.Errorf("generation service returned %d", resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("generation service error: %s", parsed.Error.Message)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("generation returned empty content")
	}
	return parsed.Content[0].Text, nil
}
