// Package api implements the bridge gRPC service: it decodes host calls,
// converts their arguments into the native object model, drives the SDK
// runtime and converts the results back.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/solatis/aepbridge/internal/bridge"
	"github.com/solatis/aepbridge/internal/core/config"
	"github.com/solatis/aepbridge/internal/core/metrics"
	"github.com/solatis/aepbridge/internal/sdk"
	"github.com/solatis/aepbridge/internal/wire"
)

// Host-facing module names.
const (
	ModuleCore         = "AEPCore"
	ModuleIdentity     = "AEPIdentity"
	ModuleEdgeIdentity = "AEPEdgeIdentity"
	ModuleEdge         = "AEPEdge"
	ModuleEdgeConsent  = "AEPEdgeConsent"
	ModulePlaces       = "AEPPlaces"
	ModuleMessaging    = "AEPMessaging"
	ModuleOptimize     = "AEPOptimize"
)

// handler runs one module method.
type handler func(ctx context.Context, c *call) (wire.Value, error)

// BridgeService implements BridgeServer over an sdk.Runtime.
type BridgeService struct {
	runtime  sdk.Runtime
	cfg      *config.BridgeConfig
	journal  *Journal
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
	handlers map[string]map[string]handler

	// items numbers messaging proposition items across calls.
	items bridge.ItemSequence
}

// Option configures a BridgeService.
type Option func(*BridgeService)

// WithJournal records every call to j.
func WithJournal(j *Journal) Option {
	return func(s *BridgeService) { s.journal = j }
}

// WithMetrics records call outcomes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *BridgeService) { s.metrics = m }
}

// WithTracer replaces the default noop tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *BridgeService) { s.tracer = t }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *BridgeService) { s.logger = l }
}

// NewBridgeService creates a service driving rt.
func NewBridgeService(rt sdk.Runtime, cfg *config.BridgeConfig, opts ...Option) (*BridgeService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}

	s := &BridgeService{
		runtime: rt,
		cfg:     cfg,
		tracer:  noop.NewTracerProvider().Tracer("aepbridge"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handlers = map[string]map[string]handler{
		ModuleCore:         s.coreHandlers(),
		ModuleIdentity:     s.identityHandlers(),
		ModuleEdgeIdentity: s.edgeIdentityHandlers(),
		ModuleEdge:         s.edgeHandlers(),
		ModuleEdgeConsent:  s.consentHandlers(),
		ModulePlaces:       s.placesHandlers(),
		ModuleMessaging:    s.messagingHandlers(),
		ModuleOptimize:     s.optimizeHandlers(),
	}

	return s, nil
}

// Methods returns the registered methods of module, sorted.
func (s *BridgeService) Methods(module string) []string {
	var names []string
	for name := range s.handlers[module] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Modules returns the registered module names, sorted.
func (s *BridgeService) Modules() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
