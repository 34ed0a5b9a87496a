package testsupport

import (
	"context"
	"testing"

	"platewright/internal/catalog"
	"platewright/internal/config"
	"platewright/internal/logging"
	"platewright/internal/protocol"
)

// NewProtocol returns a session on the embedded catalog that discards logs.
func NewProtocol(t testing.TB, opts ...protocol.Option) *protocol.Protocol {
	t.Helper()
	opts = append([]protocol.Option{protocol.WithLogger(logging.NewNop())}, opts...)
	return protocol.New(catalog.MustBuiltin(), opts...)
}

// MustOpenCatalog opens the config's catalog database and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(context.Background(), cfg.Paths.CatalogDB)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
