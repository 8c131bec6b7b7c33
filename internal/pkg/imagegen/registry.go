package imagegen

import (
	"net/http"
	"time"
)

// defaultHTTPClient bounds every provider call; no provider request may hang
// past this.
var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// ForModel returns the adapter for a model name. Construction validates
// provider credentials, so a ConfigurationError surfaces here, before any
// ledger mutation.
func ForModel(model string) (Provider, error) {
	switch model {
	case ModelFlux:
		return NewFluxProvider(defaultHTTPClient)
	case ModelSDTurbo:
		return NewSDTurboProvider(defaultHTTPClient)
	default:
		return nil, ErrUnknownModel
	}
}

// SupportedModels lists the models the registry can build adapters for.
func SupportedModels() []string {
	return []string{ModelFlux, ModelSDTurbo}
}
