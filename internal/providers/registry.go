// Package providers declares the external services whose credentials can be
// kept in a vault and validates candidate field values against them.
package providers

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

type ID string

type Category string

const (
	CategoryAI           Category = "ai"
	CategorySmartHome    Category = "smart_home"
	CategoryCloudStorage Category = "cloud_storage"
	CategoryDevTools     Category = "dev_tools"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldPassword FieldType = "password"
	FieldURL      FieldType = "url"
	FieldSelect   FieldType = "select"
)

var ErrUnknownProvider = errors.New("unknown provider")

// Field describes one value a provider needs.
type Field struct {
	Key         string
	Label       string
	Type        FieldType
	Required    bool
	Placeholder string
	Options     []string
	Pattern     *regexp.Regexp
}

// Config is the declared credential shape of one provider.
type Config struct {
	Provider ID
	Name     string
	Category Category
	Fields   []Field
}

// FieldError is a single validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Registry is an immutable lookup of provider configs. It is safe for
// concurrent use.
type Registry struct {
	configs map[ID]Config
	ordered []Config
}

// NewRegistry checks the configs for duplicates and malformed fields.
func NewRegistry(configs ...Config) (*Registry, error) {
	r := &Registry{configs: make(map[ID]Config, len(configs))}
	for _, cfg := range configs {
		if cfg.Provider == "" {
			return nil, errors.New("provider id is required")
		}
		if _, exists := r.configs[cfg.Provider]; exists {
			return nil, fmt.Errorf("duplicate provider %q", cfg.Provider)
		}
		seen := make(map[string]bool, len(cfg.Fields))
		for _, f := range cfg.Fields {
			if f.Key == "" {
				return nil, fmt.Errorf("provider %q: field key is required", cfg.Provider)
			}
			if seen[f.Key] {
				return nil, fmt.Errorf("provider %q: duplicate field %q", cfg.Provider, f.Key)
			}
			seen[f.Key] = true
			if f.Type == FieldSelect && len(f.Options) == 0 {
				return nil, fmt.Errorf("provider %q: select field %q has no options", cfg.Provider, f.Key)
			}
		}
		r.configs[cfg.Provider] = cfg
		r.ordered = append(r.ordered, cfg)
	}

	sort.SliceStable(r.ordered, func(i, j int) bool {
		if r.ordered[i].Category != r.ordered[j].Category {
			return r.ordered[i].Category < r.ordered[j].Category
		}
		return r.ordered[i].Name < r.ordered[j].Name
	})
	return r, nil
}

func (r *Registry) Get(id ID) (Config, error) {
	cfg, ok := r.configs[id]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return cfg, nil
}

// Parse turns a caller supplied identifier into a registered ID.
func (r *Registry) Parse(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if _, err := r.Get(id); err != nil {
		return "", err
	}
	return id, nil
}

// List returns every provider ordered by category, then name.
func (r *Registry) List() []Config {
	out := make([]Config, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *Registry) ListByCategory(c Category) []Config {
	var out []Config
	for _, cfg := range r.ordered {
		if cfg.Category == c {
			out = append(out, cfg)
		}
	}
	return out
}

// Validate checks fields against the provider's declaration and returns every
// violation found, in declared field order.
func (r *Registry) Validate(id ID, fields map[string]string) ([]FieldError, error) {
	cfg, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return cfg.Validate(fields), nil
}

func (c Config) Validate(fields map[string]string) []FieldError {
	var errs []FieldError
	for _, f := range c.Fields {
		value := strings.TrimSpace(fields[f.Key])
		if value == "" {
			if f.Required {
				errs = append(errs, FieldError{Field: f.Key, Message: f.Label + " is required"})
			}
			continue
		}
		if msg := f.check(value); msg != "" {
			errs = append(errs, FieldError{Field: f.Key, Message: msg})
		}
	}

	return errs
}

func (f Field) check(value string) string {
	switch f.Type {
	case FieldURL:
		u, err := url.Parse(value)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return f.Label + " must be an http(s) URL"
		}
	case FieldSelect:
		valid := false
		for _, opt := range f.Options {
			if opt == value {
				valid = true
				break
			}
		}
		if !valid {
			return f.Label + " must be one of: " + strings.Join(f.Options, ", ")
		}
	}
	if f.Pattern != nil && !f.Pattern.MatchString(value) {
		return f.Label + " has an invalid format"
	}
	return ""
}

// FieldKeys returns the declared keys in order.
func (c Config) FieldKeys() []string {
	keys := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}
