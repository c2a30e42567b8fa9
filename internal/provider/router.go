package provider

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/itsneelabh/ralph/internal/corekit"
)

// Router is the single Complete() entry point spec §4.1 describes: it
// resolves the registered factory for the request's Tag, verifies
// credentials are present before dispatching (so a missing key fails fast
// with a remediation hint instead of surfacing as a vendor HTTP 401), calls
// the adapter, and stamps the response with a centrally computed cost.
//
// The router deliberately owns cost computation rather than trusting each
// adapter to compute it — vendors report token counts, not USD, and pricing
// changes far more often than the Request/Response contract should.
type Router struct {
	prices    *PriceTable
	telemetry corekit.Telemetry
	logger    corekit.Logger
	envLookup func(string) (string, bool)

	// adapters caches constructed adapters per tag, since New() may do
	// nontrivial setup (HTTP client construction, base URL resolution).
	adapters map[Tag]Adapter
}

// RouterOption configures a Router at construction time.
type RouterOption func(*Router)

// WithTelemetry attaches a telemetry provider; defaults to corekit.NoOpTelemetry.
func WithTelemetry(t corekit.Telemetry) RouterOption {
	return func(r *Router) { r.telemetry = t }
}

// WithLogger attaches a logger; defaults to corekit.NoOpLogger.
func WithLogger(l corekit.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// WithPriceTable overrides the default price table.
func WithPriceTable(pt *PriceTable) RouterOption {
	return func(r *Router) { r.prices = pt }
}

// WithEnvLookup overrides credential resolution, for tests.
func WithEnvLookup(f func(string) (string, bool)) RouterOption {
	return func(r *Router) { r.envLookup = f }
}

// WithAdapter pre-seeds the router with an already-constructed adapter for
// tag, skipping registry lookup and the credential check. Intended for
// tests (see internal/provider/providertest), not production wiring.
func WithAdapter(tag Tag, adapter Adapter) RouterOption {
	return func(r *Router) { r.adapters[tag] = adapter }
}

// NewRouter builds a Router. Adapters are resolved lazily on first use of
// each Tag so a run that only ever calls one vendor never pays the
// construction cost (or credential-check cost) of the others.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		prices:    NewPriceTable(),
		telemetry: &corekit.NoOpTelemetry{},
		logger:    &corekit.NoOpLogger{},
		envLookup: os.LookupEnv,
		adapters:  make(map[Tag]Adapter),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Complete dispatches req to the adapter registered for req.Provider,
// enforcing credential presence and stamping cost/provider on the result.
func (r *Router) Complete(ctx context.Context, req Request) (Response, error) {
	ctx, span := r.telemetry.StartSpan(ctx, "provider.Complete")
	defer span.End()
	span.SetAttribute("provider", string(req.Provider))
	span.SetAttribute("model", req.Model)

	// A pre-seeded adapter (WithAdapter, used by tests) bypasses registry
	// lookup and the credential check entirely — it's already constructed.
	adapter, preSeeded := r.adapters[req.Provider]
	if !preSeeded {
		factory, ok := getFactory(req.Provider)
		if !ok {
			err := fmt.Errorf("provider: no adapter registered for %q", req.Provider)
			span.RecordError(err)
			return Response{}, err
		}

		envVar := factory.CredentialEnvVar()
		if envVar != "" {
			if _, present := r.envLookup(envVar); !present {
				err := corekit.NewMissingCredentials("provider.Complete", envVar)
				span.RecordError(err)
				r.logger.Error("missing provider credentials", map[string]interface{}{
					"provider": string(req.Provider),
					"env_var":  envVar,
				})
				return Response{}, err
			}
		}

		var err error
		adapter, err = r.adapterFor(req.Provider, factory)
		if err != nil {
			span.RecordError(err)
			return Response{}, err
		}
	}

	start := time.Now()
	resp, err := adapter.Complete(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		wrapped := corekit.NewProviderError("provider.Complete", string(req.Provider), err)
		span.RecordError(wrapped)
		r.logger.Error("provider call failed", map[string]interface{}{
			"provider":    string(req.Provider),
			"model":       req.Model,
			"elapsed_ms":  elapsed.Milliseconds(),
			"error":       err,
		})
		return Response{}, wrapped
	}

	resp.ProviderUsed = req.Provider
	resp.CostUSD = r.prices.Cost(req.Model, resp.InputTokens, resp.OutputTokens)

	r.telemetry.RecordMetric("provider.cost_usd", resp.CostUSD, map[string]string{
		"provider": string(req.Provider),
		"model":    req.Model,
	})
	span.SetAttribute("cost_usd", resp.CostUSD)
	span.SetAttribute("input_tokens", resp.InputTokens)
	span.SetAttribute("output_tokens", resp.OutputTokens)

	r.logger.Info("provider call completed", map[string]interface{}{
		"provider":     string(req.Provider),
		"model":        req.Model,
		"cost_usd":     resp.CostUSD,
		"elapsed_ms":   elapsed.Milliseconds(),
	})

	return resp, nil
}

func (r *Router) adapterFor(tag Tag, factory AdapterFactory) (Adapter, error) {
	if a, ok := r.adapters[tag]; ok {
		return a, nil
	}
	a, err := factory.New(r.envLookup)
	if err != nil {
		return nil, fmt.Errorf("provider: construct adapter %q: %w", tag, err)
	}
	r.adapters[tag] = a
	return a, nil
}
