package dto

import "github.com/dimitrije/credvault/internal/providers"

type ProviderFieldResponse struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
	Pattern     string   `json:"pattern,omitempty"`
}

type ProviderResponse struct {
	Provider providers.ID            `json:"provider"`
	Name     string                  `json:"name"`
	Category providers.Category      `json:"category"`
	Fields   []ProviderFieldResponse `json:"fields"`
}

type ValidateFieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

type ValidateFieldsResponse struct {
	Valid  bool                   `json:"valid"`
	Errors []providers.FieldError `json:"errors"`
}

func NewProviderResponse(cfg providers.Config) ProviderResponse {
	fields := make([]ProviderFieldResponse, 0, len(cfg.Fields))
	for _, f := range cfg.Fields {
		field := ProviderFieldResponse{
			Key:         f.Key,
			Label:       f.Label,
			Type:        string(f.Type),
			Required:    f.Required,
			Placeholder: f.Placeholder,
			Options:     f.Options,
		}
		if f.Pattern != nil {
			field.Pattern = f.Pattern.String()
		}
		fields = append(fields, field)
	}
	return ProviderResponse{
		Provider: cfg.Provider,
		Name:     cfg.Name,
		Category: cfg.Category,
		Fields:   fields,
	}
}
