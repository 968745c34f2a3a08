package connectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory maintains a registry of ConnectorBuilders keyed by kind and
// creates connectors bound to a source.
type Factory struct {
	mu       sync.RWMutex
	builders map[string]driven.ConnectorBuilder
}

// NewFactory creates a connector factory.
func NewFactory() *Factory {
	return &Factory{
		builders: make(map[string]driven.ConnectorBuilder),
	}
}

// Register registers a connector builder for its kind.
func (f *Factory) Register(builder driven.ConnectorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[builder.Kind()] = builder
}

// Create creates a connector for the given source.
func (f *Factory) Create(ctx context.Context, source *domain.Source) (driven.SourceConnector, error) {
	f.mu.RLock()
	builder, ok := f.builders[source.Kind]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrConnectorNotFound, source.Kind)
	}

	connector, err := builder.Build(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("build connector: %w", err)
	}
	return connector, nil
}

// SupportedKinds returns all registered connector kinds.
func (f *Factory) SupportedKinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	kinds := make([]string, 0, len(f.builders))
	for kind := range f.builders {
		kinds = append(kinds, kind)
	}
	return kinds
}
