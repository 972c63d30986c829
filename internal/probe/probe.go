// Package probe runs provider connectivity checks with decrypted credential
// fields. A probe never persists or logs the fields it is given.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dimitrije/credvault/internal/providers"
)

var ErrNoProbe = errors.New("no connectivity test for provider")

type Result struct {
	Success    bool
	Message    string
	Endpoint   string
	Method     string
	StatusCode int
	Latency    time.Duration
}

// Reached reports whether the provider answered at all.
func (r *Result) Reached() bool {
	return r.StatusCode != 0
}

type Prober interface {
	Probe(ctx context.Context, provider providers.ID, fields map[string]string) (*Result, error)
}

// Check tests one provider's credentials.
type Check interface {
	Check(ctx context.Context, fields map[string]string) (*Result, error)
}

type Registry struct {
	checks map[providers.ID]Check
}

var _ Prober = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{checks: make(map[providers.ID]Check)}
}

func (r *Registry) Register(id providers.ID, c Check) {
	r.checks[id] = c
}

func (r *Registry) Has(id providers.ID) bool {
	_, ok := r.checks[id]
	return ok
}

func (r *Registry) Probe(ctx context.Context, provider providers.ID, fields map[string]string) (*Result, error) {
	c, ok := r.checks[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProbe, provider)
	}
	return c.Check(ctx, fields)
}

// Default wires the checks for every provider with a public identity
// endpoint. Providers that only speak local or signed protocols (Hue,
// S3, Google AI, Supabase) have none.
func Default(client *http.Client) *Registry {
	r := NewRegistry()

	bearer := func(url, field string) *HTTPCheck {
		return &HTTPCheck{Client: client, URL: url, TokenField: field, Scheme: "Bearer"}
	}

	r.Register(providers.OpenAI, bearer("https://api.openai.com/v1/models", "apiKey"))
	r.Register(providers.Mistral, bearer("https://api.mistral.ai/v1/models", "apiKey"))
	r.Register(providers.Groq, bearer("https://api.groq.com/openai/v1/models", "apiKey"))
	r.Register(providers.HuggingFace, bearer("https://huggingface.co/api/whoami-v2", "apiKey"))
	r.Register(providers.Replicate, bearer("https://api.replicate.com/v1/account", "apiKey"))
	r.Register(providers.GitHub, bearer("https://api.github.com/user", "token"))
	r.Register(providers.Vercel, bearer("https://api.vercel.com/v2/user", "token"))
	r.Register(providers.Netlify, bearer("https://api.netlify.com/api/v1/user", "token"))
	r.Register(providers.SmartThings, bearer("https://api.smartthings.com/v1/locations", "accessToken"))

	r.Register(providers.Anthropic, &HTTPCheck{
		Client:     client,
		URL:        "https://api.anthropic.com/v1/models",
		TokenField: "apiKey",
		Header:     "x-api-key",
		Extra:      map[string]string{"anthropic-version": "2023-06-01"},
	})
	r.Register(providers.ElevenLabs, &HTTPCheck{
		Client:     client,
		URL:        "https://api.elevenlabs.io/v1/user",
		TokenField: "apiKey",
		Header:     "xi-api-key",
	})
	r.Register(providers.GitLab, &HTTPCheck{
		Client:         client,
		BaseURLField:   "baseUrl",
		DefaultBaseURL: "https://gitlab.com",
		Path:           "/api/v4/user",
		TokenField:     "token",
		Header:         "PRIVATE-TOKEN",
	})
	r.Register(providers.HomeAssistant, &HTTPCheck{
		Client:       client,
		BaseURLField: "baseUrl",
		Path:         "/api/",
		TokenField:   "accessToken",
		Scheme:       "Bearer",
	})

	r.Register(providers.GoogleDrive, NewGoogleDriveCheck(client))
	r.Register(providers.Dropbox, NewDropboxCheck(client))

	return r
}

func classify(res *Result, status int, start time.Time) *Result {
	res.StatusCode = status
	res.Latency = time.Since(start)
	switch {
	case status >= 200 && status < 300:
		res.Success = true
		res.Message = "connection successful"
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		res.Message = fmt.Sprintf("credentials rejected (status %d)", status)
	default:
		res.Message = fmt.Sprintf("unexpected status %d", status)
	}
	return res
}
