package insight

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"tipledger/internal/config"
)

// Apology is shown whenever the generation service cannot produce
// text. Generation failures never surface as errors to the caller.
const Apology = "Sorry, I couldn't come up with anything right now. Your numbers are still safe — try again in a bit."

// Generator calls the external text-completion service. One request
// per user action, no retry, no cancellation; an in-flight request is
// allowed to run to completion or failure.
type Generator struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{
		url:    cfg.GenerationURL,
		apiKey: cfg.GenerationAPIKey,
		model:  cfg.GenerationModel,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Generate sends the prompt to the completion endpoint and returns the
// generated text, or Apology on any failure (unconfigured endpoint,
// transport error, non-2xx status, unparseable body).
func (g *Generator) Generate(prompt string) string {
	if g.url == "" {
		return Apology
	}

	body, err := json.Marshal(generateRequest{Model: g.model, Prompt: prompt})
	if err != nil {
		return Apology
	}

	req, err := http.NewRequest(http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return Apology
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Apology
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Apology
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Apology
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil || strings.TrimSpace(out.Text) == "" {
		return Apology
	}
	return out.Text
}
