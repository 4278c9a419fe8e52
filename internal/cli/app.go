package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/soyeahso/assistant/internal/config"
	"github.com/soyeahso/assistant/internal/container"
	"github.com/soyeahso/assistant/internal/logging"
	"github.com/soyeahso/assistant/internal/store"
)

// containerOptions is appended to every container the commands build.
// Tests use it to swap in scripted models.
var containerOptions []container.Option

// loadConfig reads the config file and rebuilds the logger from its logging
// section unless --log-level was given.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if logLevel == "" {
		log = logging.NewStyled(cfg.Logging.Level, cfg.Logging.ConsoleStyle)
	}
	return cfg, nil
}

// loadValidConfig is loadConfig followed by checkConfig.
func loadValidConfig() (config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	return cfg, checkConfig(cfg)
}

// checkConfig logs every validation issue, one per line, and fails if
// there was any.
func checkConfig(cfg config.Config) error {
	issues := config.Validate(&cfg)
	if len(issues) == 0 {
		return nil
	}
	for _, issue := range issues {
		log.Error().Str("path", issue.Path).Msg(issue.Message)
	}
	return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
}

// buildContainer wires every service from cfg.
func buildContainer(ctx context.Context, cfg config.Config) (*container.Container, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("creating %s: %w", paths.Base, err)
	}
	return container.New(ctx, &cfg, paths, log, containerOptions...)
}

// openTranscripts opens the transcript store without wiring the model or
// the plugins.
func openTranscripts(ctx context.Context) (*store.DB, *store.TranscriptStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.Disabled {
		return nil, nil, errors.New("transcript store is disabled (store.disabled: true)")
	}
	path := cfg.Store.Path
	if path == "" {
		path = paths.Transcripts
	}
	db, err := store.Open(ctx, path, log)
	if err != nil {
		return nil, nil, err
	}
	return db, store.NewTranscriptStore(db), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
