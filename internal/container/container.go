// Package container wires the assistant's services using go.uber.org/dig.
package container

import (
	"context"
	"fmt"

	"go.uber.org/dig"

	"github.com/soyeahso/assistant/internal/agent"
	"github.com/soyeahso/assistant/internal/config"
	"github.com/soyeahso/assistant/internal/gateway"
	"github.com/soyeahso/assistant/internal/hooks"
	"github.com/soyeahso/assistant/internal/llm"
	"github.com/soyeahso/assistant/internal/logging"
	"github.com/soyeahso/assistant/internal/mail"
	"github.com/soyeahso/assistant/internal/plugin"
	"github.com/soyeahso/assistant/internal/plugin/builtin"
	"github.com/soyeahso/assistant/internal/store"
	"github.com/soyeahso/assistant/internal/tool"
)

// Container holds the resolved service singletons.
// Callers use the typed getters; they never need to import dig directly.
type Container struct {
	cfg     *config.Config
	log     *logging.Logger
	hooks   *hooks.Manager
	models  *llm.Registry
	tools   *tool.Registry
	plugins *plugin.Registry
	runner  *agent.Runner
	gateway *gateway.Server
	db      *store.DB
	ts      *store.TranscriptStore
	closed  bool
}

func (c *Container) Config() *config.Config              { return c.cfg }
func (c *Container) Hooks() *hooks.Manager               { return c.hooks }
func (c *Container) Models() *llm.Registry               { return c.models }
func (c *Container) Tools() *tool.Registry               { return c.tools }
func (c *Container) Plugins() *plugin.Registry           { return c.plugins }
func (c *Container) Runner() *agent.Runner               { return c.runner }
func (c *Container) Gateway() *gateway.Server            { return c.gateway }
func (c *Container) Transcripts() *store.TranscriptStore { return c.ts }

// Option overrides a service the container would otherwise build.
type Option func(*options)

type options struct {
	models *llm.Registry
	mail   mail.Sender
}

// WithModels replaces the provider registry built from cfg.Models.
func WithModels(r *llm.Registry) Option {
	return func(o *options) { o.models = r }
}

// WithMailSender replaces the sender built from cfg.Mail.
func WithMailSender(s mail.Sender) Option {
	return func(o *options) { o.mail = s }
}

// transcripts is nil-safe: both fields are nil when the store is disabled.
type transcripts struct {
	db *store.DB
	ts *store.TranscriptStore
}

// installedTools is the tool registry after every plugin has been installed.
type installedTools struct{ *tool.Registry }

// New builds and wires every service from cfg. ctx bounds plugin
// initialization and database setup. Close releases what New acquired.
func New(ctx context.Context, cfg *config.Config, paths config.Paths, log *logging.Logger, opts ...Option) (*Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// undo releases what was acquired when wiring fails part way.
	var undo []func()

	d := dig.New()
	providers := []any{
		func() context.Context { return ctx },
		func() *config.Config { return cfg },
		func() config.Paths { return paths },
		func() *logging.Logger { return log },
		hooks.NewManager,
		func(cfg *config.Config, log *logging.Logger) *llm.Registry {
			if o.models != nil {
				return o.models
			}
			return llm.NewRegistryFromConfig(cfg.Models, log)
		},
		func(ctx context.Context, cfg *config.Config, paths config.Paths, log *logging.Logger) (mail.Sender, error) {
			if o.mail != nil {
				return o.mail, nil
			}
			return newMailSender(ctx, cfg, paths, log)
		},
		func(ctx context.Context, cfg *config.Config, paths config.Paths, hm *hooks.Manager, log *logging.Logger) (transcripts, error) {
			tr, err := newTranscripts(ctx, cfg, paths, hm, log)
			if tr.db != nil {
				undo = append(undo, func() { tr.db.Close() })
			}
			return tr, err
		},
		func(ctx context.Context, cfg *config.Config, hm *hooks.Manager, sender mail.Sender, tr transcripts, log *logging.Logger) (*plugin.Registry, error) {
			reg, err := newPlugins(ctx, cfg, hm, sender, tr, log)
			if reg != nil {
				undo = append(undo, reg.CloseAll)
			}
			return reg, err
		},
		newTools,
		newRunner,
		newGateway,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		hm *hooks.Manager,
		models *llm.Registry,
		tr transcripts,
		plugins *plugin.Registry,
		tools installedTools,
		runner *agent.Runner,
		gw *gateway.Server,
	) {
		result = &Container{
			cfg:     cfg,
			log:     log,
			hooks:   hm,
			models:  models,
			tools:   tools.Registry,
			plugins: plugins,
			runner:  runner,
			gateway: gw,
			db:      tr.db,
			ts:      tr.ts,
		}
	})
	if err != nil {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return nil, fmt.Errorf("wiring services: %w", dig.RootCause(err))
	}
	return result, nil
}

// Close shuts plugins down, drains async hooks and closes the transcript
// database. Calling it twice is a no-op.
func (c *Container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	c.plugins.CloseAll()
	c.hooks.Wait()
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// newMailSender builds the live sender only when the email capability is
// enabled, so a missing Gmail token never blocks the other commands.
func newMailSender(ctx context.Context, cfg *config.Config, paths config.Paths, log *logging.Logger) (mail.Sender, error) {
	if !cfg.PluginEnabled("email") {
		return mail.NewLogSender(log), nil
	}
	return mail.NewSender(ctx, cfg.Mail, paths.GmailToken, log)
}

func newTranscripts(ctx context.Context, cfg *config.Config, paths config.Paths, hm *hooks.Manager, log *logging.Logger) (transcripts, error) {
	if cfg.Store.Disabled {
		log.Debug().Msg("transcript store disabled")
		return transcripts{}, nil
	}
	path := cfg.Store.Path
	if path == "" {
		path = paths.Transcripts
	}
	db, err := store.Open(ctx, path, log)
	if err != nil {
		return transcripts{}, fmt.Errorf("opening transcript store: %w", err)
	}
	ts := store.NewTranscriptStore(db)
	store.NewRecorder(ts, log).Attach(hm)
	return transcripts{db: db, ts: ts}, nil
}

// newPlugins depends on transcripts so the recorder is attached before any
// plugin can emit.
func newPlugins(ctx context.Context, cfg *config.Config, hm *hooks.Manager, sender mail.Sender, _ transcripts, log *logging.Logger) (*plugin.Registry, error) {
	reg := plugin.NewRegistry(hm, log)
	if err := builtin.Register(reg, cfg, builtin.Deps{Mail: sender}); err != nil {
		return nil, err
	}
	if err := reg.InitAll(ctx); err != nil {
		reg.CloseAll()
		return nil, err
	}
	return reg, nil
}

func newTools(plugins *plugin.Registry) (installedTools, error) {
	reg := tool.NewRegistry()
	if err := plugins.Install(reg); err != nil {
		return installedTools{}, err
	}
	return installedTools{reg}, nil
}

func newRunner(cfg *config.Config, models *llm.Registry, tools installedTools, hm *hooks.Manager, log *logging.Logger) *agent.Runner {
	return agent.NewRunner(agent.Config{
		Model:         cfg.Agent.Model,
		Instructions:  cfg.Agent.SystemPrompt,
		MaxHops:       cfg.Agent.MaxHops,
		ToolTimeout:   cfg.Agent.ToolTimeout,
		ParallelTools: cfg.Agent.ParallelTools,
		MaxTokens:     cfg.Agent.MaxTokens,
		Temperature:   cfg.Agent.Temperature,
	}, models, tools.Registry, hm, log)
}

func newGateway(cfg *config.Config, paths config.Paths, runner *agent.Runner, hm *hooks.Manager, log *logging.Logger) *gateway.Server {
	raw, err := config.LoadRaw(paths.Config)
	if err != nil {
		log.Warn().Err(err).Msg("config.get will see an empty config")
		raw = map[string]any{}
	}
	return gateway.New(*cfg, log,
		gateway.WithConfigRaw(raw),
		gateway.WithHooks(hm),
		gateway.WithRunner(runner),
	)
}
