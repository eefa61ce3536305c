package cmd

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/docreview/internal/auth"
	"github.com/felixgeelhaar/docreview/internal/config"
	"github.com/felixgeelhaar/docreview/internal/credstore"
	"github.com/felixgeelhaar/docreview/internal/document"
	"github.com/felixgeelhaar/docreview/internal/errors"
	"github.com/felixgeelhaar/docreview/internal/log"
	"github.com/felixgeelhaar/docreview/internal/metrics"
	"github.com/felixgeelhaar/docreview/internal/platform"
	"github.com/felixgeelhaar/docreview/internal/session"
	"github.com/felixgeelhaar/docreview/internal/telemetry"
	"github.com/felixgeelhaar/docreview/internal/version"
)

// app is the object graph of one invocation. The session is created once
// here and handed to everything that reads or writes it.
type app struct {
	cfg    *config.Config
	logger *log.Logger

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	store     credstore.Store
	session   *session.State
	client    *platform.Client
	loader    *auth.Loader
	guard     *auth.Guard
	documents *document.Service

	shutdown func(context.Context) error
}

func loadConfig(cc *CommandContext) (*config.Config, error) {
	opts := config.LoadOptions{Path: cc.ConfigPath}
	if cc.EnvFile != "" {
		opts.DotEnv = []string{cc.EnvFile}
	}
	return config.Load(opts)
}

func newLogger(cc *CommandContext, cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.Logging.Level)
	lc.Format = log.ParseFormat(cfg.Logging.Format)
	if cc.Verbose {
		lc.Level = log.LevelDebug
		lc.AddSource = true
	}
	return log.New(lc)
}

// newApp wires the application. nav receives navigation intents from the
// loader and guard; nil discards them.
func newApp(ctx context.Context, cc *CommandContext, nav auth.Navigator) (*app, error) {
	cfg, err := loadConfig(cc)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cc, cfg)
	log.SetDefaultLogger(logger)

	storeOpts := credstore.Options{
		Backend:     cfg.Credentials.Backend,
		Path:        cfg.Credentials.Path,
		RedisAddr:   cfg.Credentials.RedisAddr,
		RedisPrefix: cfg.Credentials.RedisPrefix,
	}
	if cc.Ephemeral {
		storeOpts.Backend = credstore.BackendMemory
	}
	store, err := credstore.Open(storeOpts, logger)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to open credential store", err)
	}

	info := version.GetInfo()
	tcfg := telemetry.DefaultConfig()
	tcfg.Enabled = cfg.Telemetry.Enabled
	tcfg.ServiceName = cfg.Telemetry.ServiceName
	tcfg.ServiceVersion = info.Version
	tcfg.Endpoint = cfg.Telemetry.Endpoint
	tcfg.SampleRate = cfg.Telemetry.SampleRate
	shutdown, err := telemetry.InitProvider(ctx, tcfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to initialize tracing", err)
	}

	registry, m := metrics.NewRegistry()
	state := session.New(store)

	transport := platform.NewTransport(nil, platform.TransportConfig{
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		Breaker:   cfg.API.Breaker,
		BreakerSettings: platform.BreakerSettings{
			Failures:    cfg.API.BreakerFailures,
			OpenTimeout: cfg.API.BreakerTimeout,
		},
		Instrument: m.InstrumentRoundTripper,
	}, state, logger)

	httpClient := &http.Client{Transport: transport, Timeout: cfg.API.Timeout}
	client := platform.NewClient(cfg.API.BaseURL, httpClient, logger).WithUserAgent(info.UserAgent())

	logger.Debug("application wired",
		"base_url", client.BaseURL(),
		"credentials", storeOpts.Backend,
		"authenticated", state.IsAuthenticated())

	return &app{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		metrics:   m,
		store:     store,
		session:   state,
		client:    client,
		loader:    auth.NewLoader(client, state, nav, logger).WithRecorder(m),
		guard:     auth.NewGuard(state, nav),
		documents: document.NewService(client, state, logger).WithObserver(m),
		shutdown:  shutdown,
	}, nil
}

// Close flushes telemetry.
func (a *app) Close(ctx context.Context) {
	if a.shutdown == nil {
		return
	}
	if err := a.shutdown(ctx); err != nil {
		a.logger.WithError(err).Warn("failed to flush traces")
	}
}

// fail counts err against component and returns it unchanged.
func (a *app) fail(component string, err error) error {
	if err == nil {
		return nil
	}
	code, ok := errors.CodeOf(err)
	if !ok {
		code = "UNCLASSIFIED"
	}
	a.metrics.RecordError(string(code), component)
	a.logger.WithError(err).Debug("command failed", "component", component)
	return err
}

// defaultFilter is the listing filter seeded from config defaults.
func (a *app) defaultFilter() document.Filter {
	f := document.NewFilter()
	f.Size = a.cfg.Defaults.PageSize
	f.ChangeSort(a.cfg.Defaults.Sort)
	return f
}
