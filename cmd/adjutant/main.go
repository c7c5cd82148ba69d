package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adjutant-ai/adjutant/internal/adapter"
	"github.com/adjutant-ai/adjutant/internal/capability"
	"github.com/adjutant-ai/adjutant/internal/config"
	"github.com/adjutant-ai/adjutant/internal/engine"
	"github.com/adjutant-ai/adjutant/internal/gateway"
	"github.com/adjutant-ai/adjutant/internal/history"
	"github.com/adjutant-ai/adjutant/internal/luacap"
	"github.com/adjutant-ai/adjutant/internal/metrics"
	"github.com/adjutant-ai/adjutant/internal/provider"
	"github.com/adjutant-ai/adjutant/internal/scheduler"
	"github.com/adjutant-ai/adjutant/internal/services"
	"github.com/adjutant-ai/adjutant/internal/store"
	"github.com/adjutant-ai/adjutant/internal/version"
)

func main() {
	configPath := flag.String("config", "adjutant.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log.Printf("adjutant: %s", version.Get())

	llm, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	dsn := cfg.Store.DataDir
	if cfg.Store.Driver == store.DriverPostgres {
		dsn = cfg.Store.DSN
	}
	db, err := store.Open(cfg.Store.Driver, dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	m := metrics.New()
	caps, err := buildCapabilities(cfg, db, m)
	if err != nil {
		return err
	}

	sessions, err := buildSessions(cfg)
	if err != nil {
		return err
	}

	extractor := adapter.NewLLMExtractor(llm, config.Duration(cfg.Engine.ExtractTimeout, adapter.DefaultExtractTimeout))
	ring := history.NewRing(cfg.Engine.HistorySize)

	eng := engine.New(llm, caps, adapter.New(extractor), ring, sessions, m, engine.Timeouts{
		Decide:     config.Duration(cfg.Engine.DecideTimeout, 0),
		Summarize:  config.Duration(cfg.Engine.SummarizeTimeout, 0),
		Capability: config.Duration(cfg.Engine.CapabilityTimeout, 0),
	})

	sched := scheduler.New(caps, logNotifier{}, cfg.Scheduler.DataDir,
		config.Duration(cfg.Engine.CapabilityTimeout, 30*time.Second))
	if err := sched.Start(cfg.Scheduler.Jobs); err != nil {
		return err
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:    cfg.Gateway.Listen,
		Handler: gateway.New(eng, ring, m).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("gateway: listening on %s", cfg.Gateway.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("adjutant: received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func buildProvider(cfg *config.Config) (provider.Provider, error) {
	id := cfg.Engine.Provider
	if id == "" {
		return nil, fmt.Errorf("engine.provider is required")
	}
	for _, pc := range cfg.ProviderConfigs() {
		if pc.ID == id {
			return provider.FromConfig(pc)
		}
	}
	return nil, fmt.Errorf("provider %q not configured", id)
}

// buildCapabilities registers the local collaborators plus any Lua
// scripts and runs discovery once. Validation issues are logged, not
// fatal; duplicate public names are.
func buildCapabilities(cfg *config.Config, db *store.DB, m *metrics.Metrics) (*capability.Store, error) {
	table, err := capability.DefaultTable()
	if err != nil {
		return nil, err
	}
	caps := capability.NewStore(
		capability.NewMetadataDiscovery(table),
		capability.NewSelfDiscovery(),
	)

	// Registration order fixes discovery order, so the catalog and the
	// decision prompt come out the same on every start.
	registrations := []struct {
		name   string
		collab capability.Collaborator
	}{
		{"calendar", services.NewCalendar(store.NewEventStore(db), m)},
		{"mail", services.NewMail()},
		{"tasks", services.NewTasks(store.NewTaskStore(db))},
		{"drive", services.NewDrive()},
		{"sheets", services.NewSheets()},
		{"maps", services.NewMaps()},
	}
	for _, r := range registrations {
		if err := caps.Register(r.name, r.collab); err != nil {
			return nil, err
		}
	}

	if cfg.Lua.Dir != "" {
		scripts, err := luacap.LoadDir(cfg.Lua.Dir)
		if err != nil {
			return nil, err
		}
		for _, s := range scripts {
			if err := caps.Register("lua:"+s.Name(), s); err != nil {
				return nil, err
			}
		}
	}

	if err := caps.DiscoverAll(); err != nil {
		return nil, err
	}
	for _, issue := range caps.Validate() {
		log.Printf("capability: %s", issue)
	}
	log.Printf("capability: %d capabilities discovered", len(caps.List()))
	return caps, nil
}

func buildSessions(cfg *config.Config) (history.SessionStore, error) {
	switch cfg.Sessions.Backend {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return history.NewRedisSessionStore(ctx,
			cfg.Sessions.Redis.Addr, cfg.Sessions.Redis.Password,
			cfg.Sessions.Redis.DB, cfg.Sessions.MaxMessages)
	default:
		return history.NewMemorySessionStore(cfg.Sessions.MaxMessages), nil
	}
}

// logNotifier writes scheduled job output to the process log.
type logNotifier struct{}

func (logNotifier) Notify(_ context.Context, job, content string) error {
	log.Printf("scheduler: %s: %s", job, content)
	return nil
}
