package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/william251082/fileupload/logger"
)

// Factory builds a backend for one provider.
type Factory func(ctx context.Context, cfg Config, log *logger.Logger) (Backend, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory makes a provider available to New. Provider packages call
// it from init, so import them for side effects:
//
//	import _ "github.com/william251082/fileupload/storage/local"
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New validates cfg and builds the backend for cfg.Provider.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Backend, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok || f == nil {
		return nil, fmt.Errorf("storage: provider %q is not registered", cfg.Provider)
	}

	l := log.WithComponent("storage." + cfg.Provider)
	l.Info("initializing storage", map[string]interface{}{"provider": cfg.Provider})
	return f(ctx, cfg, l)
}
