// internal/providerfactory/factory.go
package providerfactory

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/tokbench/internal/appconfig"
	"github.com/mwiater/tokbench/internal/logging"
	"github.com/mwiater/tokbench/internal/providers"
	"github.com/mwiater/tokbench/internal/providers/openai"
)

// NewTransport builds the inference transport for the configured endpoint.
// Every variant of an A/B run shares it; the endpoint travels with each request.
func NewTransport(cfg *appconfig.Config) (providers.Transport, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}
	if strings.TrimSpace(cfg.Endpoint.URL) == "" {
		return nil, fmt.Errorf("endpoint.url is required to build a transport")
	}
	logging.LogEvent("transport ready: %s (%s)", cfg.Endpoint.Identifier(), cfg.Endpoint.Model)
	return openai.New(cfg), nil
}

// ListModels returns the model identifiers served by endpoint.
func ListModels(ctx context.Context, cfg *appconfig.Config, endpoint appconfig.Endpoint) ([]string, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}
	provider := openai.New(cfg)
	defer provider.Close()
	return provider.Models(ctx, endpoint)
}
