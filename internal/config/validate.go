package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/systemshift/memex-vc/internal/policy"
	"github.com/systemshift/memex-vc/internal/store"
)

// validBackends lists the accepted store backend names.
var validBackends = map[string]bool{
	store.BackendMemory: true,
	store.BackendFile:   true,
	store.BackendBolt:   true,
	store.BackendKubo:   true,
}

// Validate checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func Validate(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	backend := strings.ToLower(cfg.Store.Backend)
	if !validBackends[backend] {
		return fmt.Errorf("%w: %q", ErrInvalidBackend, cfg.Store.Backend)
	}
	if (backend == store.BackendFile || backend == store.BackendBolt) && cfg.Store.Dir == "" {
		return ErrEmptyStoreDir
	}
	if backend == store.BackendKubo {
		u, err := url.Parse(cfg.Store.KuboAPI)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidKuboAPI, cfg.Store.KuboAPI)
		}
	}

	if _, err := policy.ParseLinkCheck(cfg.Policy.LinkCheck); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLinkCheck, cfg.Policy.LinkCheck)
	}
	if cfg.Policy.MaxChain < 0 {
		return ErrInvalidMaxChain
	}
	return nil
}
