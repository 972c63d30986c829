package handlers

import (
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/dimitrije/credvault/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type ProviderHandler struct {
	registry ProviderRegistryInterface
}

func NewProviderHandler(registry ProviderRegistryInterface) *ProviderHandler {
	return &ProviderHandler{registry: registry}
}

// List accepts an optional ?category= filter.
func (h *ProviderHandler) List(c *drift.Context) {
	var configs []providers.Config
	if category := c.QueryParam("category"); category != "" {
		configs = h.registry.ListByCategory(providers.Category(category))
	} else {
		configs = h.registry.List()
	}

	response := make([]dto.ProviderResponse, 0, len(configs))
	for _, cfg := range configs {
		response = append(response, dto.NewProviderResponse(cfg))
	}
	_ = c.JSON(200, response)
}

func (h *ProviderHandler) Get(c *drift.Context) {
	cfg, ok := h.lookup(c)
	if !ok {
		return
	}
	_ = c.JSON(200, dto.NewProviderResponse(cfg))
}

func (h *ProviderHandler) Validate(c *drift.Context) {
	cfg, ok := h.lookup(c)
	if !ok {
		return
	}

	var req dto.ValidateFieldsRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	errs := cfg.Validate(req.Fields)
	if errs == nil {
		errs = []providers.FieldError{}
	}
	_ = c.JSON(200, dto.ValidateFieldsResponse{
		Valid:  len(errs) == 0,
		Errors: errs,
	})
}

func (h *ProviderHandler) lookup(c *drift.Context) (providers.Config, bool) {
	id, err := h.registry.Parse(c.Param("provider"))
	if err != nil {
		c.NotFound("provider not found")
		return providers.Config{}, false
	}
	cfg, err := h.registry.Get(id)
	if err != nil {
		c.NotFound("provider not found")
		return providers.Config{}, false
	}
	return cfg, true
}
