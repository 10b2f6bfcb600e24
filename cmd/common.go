package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/quorumlabs/quorum/pkg/quorum"
	"github.com/quorumlabs/quorum/pkg/quorum/config"
	"github.com/quorumlabs/quorum/pkg/quorum/registry"
	"github.com/quorumlabs/quorum/pkg/quorum/store"
	"github.com/quorumlabs/quorum/pkg/quorum/tracker"
)

// modelEntry mirrors one item under the models: key in the config file
type modelEntry struct {
	ID            string `mapstructure:"id"`
	Provider      string `mapstructure:"provider"`
	Endpoint      string `mapstructure:"endpoint"`
	Model         string `mapstructure:"model"`
	Credential    string `mapstructure:"credential"`
	CredentialEnv string `mapstructure:"credential_env"`
}

func loadRegistry() (*registry.Registry, error) {
	var entries []modelEntry
	if err := viper.UnmarshalKey("models", &entries); err != nil {
		return nil, fmt.Errorf("parsing models config: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no models configured; add a models: section to the config file")
	}

	configs := make([]registry.ModelConfig, 0, len(entries))
	for _, e := range entries {
		credential := e.Credential
		if credential == "" && e.CredentialEnv != "" {
			credential = os.Getenv(e.CredentialEnv)
		}
		configs = append(configs, registry.ModelConfig{
			ID:            e.ID,
			Provider:      e.Provider,
			Endpoint:      e.Endpoint,
			Model:         e.Model,
			CredentialRef: credential,
		})
	}

	return registry.New(configs)
}

func openStore() (tracker.Store, func(), error) {
	noop := func() {}

	switch backend := viper.GetString("store"); backend {
	case "", "memory":
		return store.NewMemory(), noop, nil
	case "sqlite":
		path := viper.GetString("store_path")
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, nil, err
			}
			path = home + "/.quorum.db"
		}
		s, err := store.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "redis":
		addr := viper.GetString("redis_addr")
		if addr == "" {
			addr = "localhost:6379"
		}
		s, err := store.OpenRedis(addr)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// providerDefaults layers QUORUM_* environment settings under the config
// file's adapter tuning keys. Per-model registry entries still override
// both.
func providerDefaults() config.Config {
	var opts []config.ProviderOption
	if v := viper.GetInt("max_tokens"); v > 0 {
		opts = append(opts, config.WithMaxTokens(v))
	}
	if v := viper.GetFloat64("temperature"); v > 0 {
		opts = append(opts, config.WithTemperature(v))
	}
	if viper.IsSet("retry_attempts") {
		opts = append(opts, config.WithRetryAttempts(viper.GetInt("retry_attempts")))
	}
	if viper.GetBool("breaker") {
		opts = append(opts, config.WithBreaker(true))
	}
	return config.FromEnvironment("QUORUM").WithOptions(opts...)
}

func newLogger() zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

func buildOrchestrator(extra ...quorum.Option) (*quorum.Orchestrator, func(), error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, nil, err
	}

	s, closeStore, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	opts := []quorum.Option{
		quorum.WithStore(s),
		quorum.WithLogger(newLogger()),
		quorum.WithProviderDefaults(providerDefaults()),
	}
	if timeout := viper.GetDuration("call_timeout"); timeout > 0 {
		opts = append(opts, quorum.WithCallTimeout(timeout))
	}
	opts = append(opts, extra...)

	orch, err := quorum.New(reg, opts...)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return orch, closeStore, nil
}
