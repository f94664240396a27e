package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/chunkyard/adapter"
	redisadapter "github.com/pithecene-io/chunkyard/adapter/redis"
	"github.com/pithecene-io/chunkyard/adapter/webhook"
	"github.com/pithecene-io/chunkyard/auth"
	"github.com/pithecene-io/chunkyard/blob"
	"github.com/pithecene-io/chunkyard/cli/config"
	"github.com/pithecene-io/chunkyard/session"
)

// defaultConfigPath is read when --config is not given and the file exists.
const defaultConfigPath = "chunkyard.yaml"

// loadConfig reads the config file and applies flag overrides.
// A missing default file yields an empty config; a missing explicit file
// is an error.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := &config.Config{}
	path := c.String("config")
	switch {
	case path != "":
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		if _, err := os.Stat(defaultConfigPath); err == nil {
			loaded, err := config.Load(defaultConfigPath)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}

	applyOverrides(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides copies explicitly set flags over config values.
// Commands that do not define a flag leave the config untouched.
func applyOverrides(c *cli.Context, cfg *config.Config) {
	setString := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	setString("storage-backend", &cfg.Storage.Backend)
	setString("storage-path", &cfg.Storage.Path)
	setString("storage-region", &cfg.Storage.Region)
	setString("storage-endpoint", &cfg.Storage.Endpoint)
	setString("storage-redis-url", &cfg.Storage.RedisURL)
	setString("principal", &cfg.Principal)
	if c.IsSet("storage-s3-path-style") {
		cfg.Storage.S3PathStyle = c.Bool("storage-s3-path-style")
	}
	if c.IsSet("max-chunks") {
		cfg.Limits.MaxChunks = uint32(c.Uint("max-chunks"))
	}
	if c.IsSet("max-bytes") {
		cfg.Limits.MaxBytes = c.Int64("max-bytes")
	}
	if c.IsSet("idle-timeout") {
		cfg.Limits.IdleTimeout.Duration = c.Duration("idle-timeout")
	}
}

// resolveBackend picks the effective backend name. With neither backend
// nor path configured, objects go to an in-memory store.
func resolveBackend(sc config.StorageConfig) string {
	switch {
	case sc.Backend != "":
		return sc.Backend
	case sc.Path != "":
		return "fs"
	default:
		return "memory"
	}
}

// buildStore creates the object store described by sc.
func buildStore(ctx context.Context, sc config.StorageConfig) (blob.Store, string, error) {
	backend := resolveBackend(sc)
	switch backend {
	case "memory":
		return blob.NewMemoryStore(), backend, nil
	case "fs":
		if sc.Path == "" {
			return nil, "", errors.New("fs backend requires storage.path or --storage-path")
		}
		if err := os.MkdirAll(sc.Path, 0o755); err != nil {
			return nil, "", fmt.Errorf("create store root: %w", err)
		}
		return blob.NewFSStore(sc.Path), backend, nil
	case "s3":
		bucket, prefix := blob.ParseS3Path(sc.Path)
		store, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       sc.Region,
			Endpoint:     sc.Endpoint,
			UsePathStyle: sc.S3PathStyle,
		})
		if err != nil {
			return nil, "", err
		}
		return store, backend, nil
	case "redis":
		store, err := blob.NewRedisStore(sc.RedisURL, sc.RedisPrefix)
		if err != nil {
			return nil, "", err
		}
		return store, backend, nil
	default:
		return nil, "", fmt.Errorf("unknown storage backend: %s (must be fs, memory, s3, or redis)", backend)
	}
}

// buildAdapter creates the completion adapter, or nil when none is
// configured.
func buildAdapter(ac config.AdapterConfig) (adapter.Adapter, error) {
	switch ac.Type {
	case "":
		return nil, nil
	case "redis":
		cfg := redisadapter.Config{
			URL:     ac.URL,
			Channel: ac.Channel,
			Timeout: ac.Timeout.Duration,
			Retries: redisadapter.DefaultRetries,
		}
		if ac.Retries != nil {
			cfg.Retries = *ac.Retries
		}
		return redisadapter.New(cfg)
	case "webhook":
		cfg := webhook.Config{
			URL:     ac.URL,
			Headers: ac.Headers,
			Timeout: ac.Timeout.Duration,
			Retries: webhook.DefaultRetries,
		}
		if ac.Retries != nil {
			cfg.Retries = *ac.Retries
		}
		return webhook.New(cfg)
	default:
		return nil, fmt.Errorf("unknown adapter type: %s (must be redis or webhook)", ac.Type)
	}
}

// buildAuthorizer returns a policy authorizer, an allow list, or
// AllowAll, depending on the auth section.
func buildAuthorizer(ac config.AuthConfig) (auth.Authorizer, error) {
	if len(ac.Policies) == 0 {
		return auth.FromPrincipals(ac.Principals), nil
	}
	rules := make([]auth.Rule, 0, len(ac.Policies))
	for _, p := range ac.Policies {
		r := auth.Rule{Principal: p.Principal}
		for _, a := range p.Actions {
			r.Actions = append(r.Actions, auth.Action(a))
		}
		rules = append(rules, r)
	}
	return auth.NewPolicyAuthorizer(rules...)
}

// sessionLimits validates the effective limits.
func sessionLimits(cfg *config.Config) (session.Limits, error) {
	limits := cfg.SessionLimits()
	if err := limits.Validate(); err != nil {
		return session.Limits{}, err
	}
	return limits, nil
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
