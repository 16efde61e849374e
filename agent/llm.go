// Package agent provides decision sources for game seats: LLM-backed agents
// routed across providers, plus deterministic agents for fallbacks and tests.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

const systemPrompt = `You are a player in a social deduction game. You receive game context, a request, and when choices are constrained, the exact list of legal options. Reply with a single JSON object and nothing else.`

// Options configures provider construction for LLM agents.
type Options struct {
	OllamaURL   string // Ollama server URL (default http://localhost:11434)
	BaseURL     string // base URL for the openai-compatible provider
	APIKey      string // API key for the openai-compatible provider
	GroqAPIKey  string
	Temperature float64 // 0 disables the option
	Retries     int     // structured-reply parse attempts, default 3
}

// LLM is an engine.Agent backed by one model reachable through langchaingo.
type LLM struct {
	llm     llms.Model
	model   string
	opts    []llms.CallOption
	retries int
}

// NewLLM builds an agent for a prefixed model string, e.g. "openai/gpt-4o-mini",
// "claude/claude-sonnet-4-5", "ollama/llama3.1", "gemini/gemini-2.0-flash",
// "groq/llama-3.1-70b", or "compat/<model>" for an openai-compatible server.
// A bare model name routes to Ollama, matching the local-first default of the
// original clients.
func NewLLM(model string, o Options) (*LLM, error) {
	provider := "ollama"
	name := model
	if i := strings.IndexByte(model, '/'); i > 0 {
		provider = model[:i]
		name = model[i+1:]
	}

	if o.OllamaURL == "" {
		o.OllamaURL = "http://localhost:11434"
	}

	var m llms.Model
	var err error
	switch provider {
	case "ollama", "local":
		m, err = ollama.New(ollama.WithModel(name), ollama.WithServerURL(o.OllamaURL))
	case "openai":
		m, err = openai.New(openai.WithModel(name))
	case "claude", "anthropic":
		m, err = anthropic.New(anthropic.WithModel(name))
	case "gemini":
		m, err = googleai.New(context.Background(), googleai.WithDefaultModel(name))
	case "groq":
		m, err = openai.New(
			openai.WithModel(name),
			openai.WithBaseURL("https://api.groq.com/openai/v1"),
			openai.WithToken(o.GroqAPIKey),
		)
	case "compat", "openai-compatible":
		if o.BaseURL == "" {
			return nil, fmt.Errorf("agent: base URL required for openai-compatible model %q", model)
		}
		copts := []openai.Option{openai.WithModel(name), openai.WithBaseURL(o.BaseURL)}
		if o.APIKey != "" {
			copts = append(copts, openai.WithToken(o.APIKey))
		}
		m, err = openai.New(copts...)
	default:
		return nil, fmt.Errorf("agent: unknown provider %q in model %q", provider, model)
	}
	if err != nil {
		return nil, fmt.Errorf("agent: init %s: %w", model, err)
	}

	var callOpts []llms.CallOption
	if o.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(o.Temperature))
	}
	retries := o.Retries
	if retries <= 0 {
		retries = 3
	}
	log.Printf("Agent: provider=%s model=%s", provider, name)
	return &LLM{llm: m, model: model, opts: callOpts, retries: retries}, nil
}

// jsonReply is the structured shape Decide asks the model for.
type jsonReply struct {
	Choices []string `json:"choices"`
	Reason  string   `json:"reason"`
}

var jsonBlock = regexp.MustCompile(`\{[\s\S]*\}`)

// Decide prompts the model for a JSON reply and extracts the chosen values.
// It retries the same prompt a few times on malformed output and returns an
// error when every attempt fails; the engine then substitutes a random legal
// choice.
func (a *LLM) Decide(ctx context.Context, d engine.Decision) ([]string, error) {
	prompt := buildDecidePrompt(d)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	var lastErr error
	for attempt := 0; attempt < a.retries; attempt++ {
		resp, err := a.llm.GenerateContent(ctx, messages, a.opts...)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		text := firstText(resp)
		reply, err := parseReply(text)
		if err != nil {
			lastErr = err
			continue
		}
		return reply.Choices, nil
	}
	return nil, fmt.Errorf("agent %s: %s decision failed: %w", a.model, d.Kind, lastErr)
}

// Say prompts the model for a free-text line.
func (a *LLM) Say(ctx context.Context, d engine.Decision) (string, error) {
	var b strings.Builder
	for _, line := range d.Context {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nYou are %s. %s\nReply with one or two sentences of in-character table talk. No JSON, no quotes around the whole reply.", d.Actor, d.Prompt)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, b.String()),
	}
	resp, err := a.llm.GenerateContent(ctx, messages, a.opts...)
	if err != nil {
		return "", fmt.Errorf("agent %s: talk failed: %w", a.model, err)
	}
	return strings.TrimSpace(firstText(resp)), nil
}

func buildDecidePrompt(d engine.Decision) string {
	var b strings.Builder
	for _, line := range d.Context {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nYou are %s. Request (%s): %s\n", d.Actor, d.Kind, d.Prompt)
	if len(d.Options) > 0 {
		fmt.Fprintf(&b, "Legal options: %s\n", strings.Join(d.Options, ", "))
	}
	n := d.Count
	if n <= 0 {
		n = 1
	}
	fmt.Fprintf(&b, `Pick exactly %d option(s). Reply with JSON only: {"choices": [...], "reason": "..."}`, n)
	return b.String()
}

// parseReply salvages the first JSON object from the model output.
func parseReply(text string) (jsonReply, error) {
	var reply jsonReply
	block := jsonBlock.FindString(text)
	if block == "" {
		return reply, fmt.Errorf("no JSON object in reply")
	}
	if err := json.Unmarshal([]byte(block), &reply); err != nil {
		return reply, fmt.Errorf("parse reply: %w", err)
	}
	if len(reply.Choices) == 0 {
		return reply, fmt.Errorf("reply has no choices")
	}
	return reply, nil
}

func firstText(resp *llms.ContentResponse) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Content
}
