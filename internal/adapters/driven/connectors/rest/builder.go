package rest

import (
	"context"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// Ensure Builder implements the interface.
var _ driven.ConnectorBuilder = (*Builder)(nil)

// TokenLookup resolves the bearer token for a source. Keeps credentials out
// of the sources table.
type TokenLookup func(sourceID string) string

// Builder creates REST connectors.
type Builder struct {
	config *Config
	tokens TokenLookup
}

// NewBuilder creates a REST connector builder. tokens may be nil when the
// sources need no authentication.
func NewBuilder(config *Config, tokens TokenLookup) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Builder{config: config, tokens: tokens}
}

// Kind returns the connector kind.
func (b *Builder) Kind() string {
	return KindREST
}

// Build creates a connector bound to the given source.
func (b *Builder) Build(ctx context.Context, source *domain.Source) (driven.SourceConnector, error) {
	var token string
	if b.tokens != nil {
		token = b.tokens(source.ID)
	}
	return NewConnector(source, token, b.config), nil
}
