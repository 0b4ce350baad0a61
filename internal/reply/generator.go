// Package reply drafts answers to customer messages from a stored business
// description, either through an OpenAI-compatible chat-completion endpoint
// or through a fixed local template.
package reply

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/isdelr/replydesk/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Mode selects how replies are produced. It is fixed when the Generator is built.
type Mode int

const (
	// ModeTemplate composes replies locally and never touches the network.
	ModeTemplate Mode = iota
	// ModeExternal asks a chat-completion endpoint for every reply.
	ModeExternal
)

func (m Mode) String() string {
	if m == ModeExternal {
		return "external"
	}
	return "template"
}

// ModeFromKey picks ModeExternal when an API key is configured.
func ModeFromKey(apiKey string) Mode {
	if strings.TrimSpace(apiKey) != "" {
		return ModeExternal
	}
	return ModeTemplate
}

const (
	DefaultEndpoint     = "https://api.openai.com/v1/chat/completions"
	DefaultModel        = "gpt-4o-mini"
	DefaultSystemPrompt = "You are a helpful assistant that replies concisely"
	DefaultMaxTokens    = 250
	DefaultTimeout      = 30 * time.Second

	// BusinessExcerptRunes bounds how much business text the template echoes.
	BusinessExcerptRunes = 500

	// Apology is returned in place of an external reply that could not be obtained.
	Apology = "Sorry, I couldn't generate a reply right now."

	greeting     = "Hello! Thanks for your message."
	callToAction = "If you'd like more details or want a human to follow up, say 'talk to human'."
)

// Config configures a Generator. Zero values take the package defaults.
type Config struct {
	Mode         Mode
	APIKey       string
	Endpoint     string
	Model        string
	SystemPrompt string
	MaxTokens    int
	Timeout      time.Duration
}

// Generator produces reply text. It holds no mutable state and is safe for
// concurrent use.
type Generator struct {
	cfg    Config
	client *http.Client
}

// Option customises a Generator.
type Option func(*Generator)

// WithHTTPClient replaces the client used for completion calls.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Generator) { g.client = client }
}

// New creates a Generator. External mode requires an API key.
func New(cfg Config, opts ...Option) (*Generator, error) {
	if cfg.Mode == ModeExternal && strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("external reply mode requires an API key")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	g := &Generator{cfg: cfg, client: &http.Client{}}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Mode reports the mode the Generator was built with.
func (g *Generator) Mode() Mode {
	return g.cfg.Mode
}

// Generate drafts a reply to userMessage for the described business. It never
// fails: when the external call does not produce text the Apology is returned.
func (g *Generator) Generate(ctx context.Context, businessText, userMessage string) string {
	if g.cfg.Mode != ModeExternal {
		metrics.ObserveReply(g.cfg.Mode.String(), "template")
		return Template(businessText, userMessage)
	}

	res := g.complete(ctx, Prompt(businessText, userMessage))
	if !res.ok() {
		log.Warn().Err(res.Err).Str("endpoint", g.cfg.Endpoint).Msg("Completion failed, replying with apology")
		metrics.ObserveReply(g.cfg.Mode.String(), "apology")
		return Apology
	}
	metrics.ObserveReply(g.cfg.Mode.String(), "ok")
	return res.Text
}

// Prompt embeds the business description and the customer message verbatim.
func Prompt(businessText, userMessage string) string {
	return "You are a customer support assistant for this business:\n" + businessText +
		"\n\nCustomer: " + userMessage + "\nAssistant:"
}

// Template builds the deterministic local reply. Blank inputs drop their
// section instead of rendering an empty one.
func Template(businessText, userMessage string) string {
	var b strings.Builder
	b.WriteString(greeting)

	if excerpt := businessExcerpt(businessText); excerpt != "" {
		b.WriteString(" Based on the business info I have, here's a helpful reply:\n\n")
		b.WriteString(excerpt)
	}
	if strings.TrimSpace(userMessage) != "" {
		b.WriteString("\n\nResponse to your message: ")
		b.WriteString(userMessage)
	}

	b.WriteString("\n\n")
	b.WriteString(callToAction)
	return b.String()
}

func businessExcerpt(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if utf8.RuneCountInString(text) <= BusinessExcerptRunes {
		return text
	}
	return string([]rune(text)[:BusinessExcerptRunes]) + "..."
}
