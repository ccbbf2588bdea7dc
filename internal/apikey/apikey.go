// Package apikey resolves the ScoutAPM API key from an ordered list of
// sources: an explicit value, environment variables, and the 1Password CLI.
package apikey

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Environment variables consulted during resolution, in order.
const (
	EnvAPIKey    = "SCOUT_APM_API_KEY"
	EnvAPIKeyAlt = "SCOUT_API_KEY"

	// EnvOpEntry names a 1Password item reference (op://vault/item/field).
	// When set, the key is read with `op read`.
	EnvOpEntry = "SCOUT_APM_OP_ENTRY"
)

// ResolverOptions configures key resolution.
type ResolverOptions struct {
	// OpRunner reads a secret from the 1Password CLI. Injectable for tests.
	// If nil, `op read <entry>` is executed.
	OpRunner func(entry string) (string, error)

	// Logger for resolution diagnostics.
	Logger *zap.Logger
}

// Resolve returns the first API key found: the explicit value, then
// $SCOUT_APM_API_KEY, then $SCOUT_API_KEY, then `op read $SCOUT_APM_OP_ENTRY`
// when that variable is set. The key is resolved once per client
// construction and never cached beyond the process.
func Resolve(explicit string, opts ResolverOptions) (string, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.OpRunner == nil {
		opts.OpRunner = runOpRead
	}
	logger := opts.Logger.Named("apikey")

	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}

	for _, env := range []string{EnvAPIKey, EnvAPIKeyAlt} {
		if key := strings.TrimSpace(os.Getenv(env)); key != "" {
			logger.Debug("resolved API key from environment", zap.String("var", env))
			return key, nil
		}
	}

	if entry := strings.TrimSpace(os.Getenv(EnvOpEntry)); entry != "" {
		key, err := opts.OpRunner(entry)
		if err != nil {
			return "", fmt.Errorf("read API key from 1Password entry %q: %w", entry, err)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return "", fmt.Errorf("1Password entry %q resolved to an empty key", entry)
		}
		logger.Debug("resolved API key from 1Password", zap.String("entry", entry))
		return key, nil
	}

	return "", fmt.Errorf("no API key found: tried explicit value, $%s, $%s and $%s", EnvAPIKey, EnvAPIKeyAlt, EnvOpEntry)
}

func runOpRead(entry string) (string, error) {
	out, err := exec.Command("op", "read", entry).Output()
	if err != nil {
		return "", fmt.Errorf("op read: %w", err)
	}
	return string(out), nil
}
