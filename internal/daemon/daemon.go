package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskmirror/taskmirror/internal/api"
	"github.com/taskmirror/taskmirror/internal/app/notify"
	"github.com/taskmirror/taskmirror/internal/app/tracker"
	"github.com/taskmirror/taskmirror/internal/domain"
	_ "github.com/taskmirror/taskmirror/internal/infra/metrics" // Register Prometheus metrics
	"github.com/taskmirror/taskmirror/internal/infra/sqlite"
	"github.com/taskmirror/taskmirror/internal/ledger"
)

// Daemon is the taskmirror runtime. It wires the gateway, tracker,
// notification center, snapshot store, and API server.
type Daemon struct {
	Config  Config
	DB      *sqlite.DB
	Gateway ledger.Gateway
	Tracker *tracker.Tracker
	Notify  *notify.Center
	Server  *api.Server
	cancel  context.CancelFunc
}

// New creates a Daemon from the on-disk configuration.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	var db *sqlite.DB
	if !cfg.Mirror.DisablePersistence {
		var err error
		db, err = sqlite.Open(cfg.Mirror.Dir)
		if err != nil {
			return nil, fmt.Errorf("open mirror store: %w", err)
		}
	}

	var caller domain.Identity
	if cfg.Ledger.Caller != "" {
		parsed, err := domain.ParseIdentity(cfg.Ledger.Caller)
		if err != nil {
			if db != nil {
				db.Close()
			}
			return nil, fmt.Errorf("config caller: %w", err)
		}
		caller = parsed
	}

	// No endpoint configured means offline mode against an empty mock
	// ledger — reads work, everything shows the empty registry.
	var gw ledger.Gateway
	if cfg.Ledger.Endpoint == "" {
		log.Printf("[daemon] no ledger endpoint configured, using offline mock registry")
		gw = ledger.NewMock()
	} else {
		gw = ledger.NewClient(ledger.ClientConfig{
			Endpoint: cfg.Ledger.Endpoint,
			Caller:   caller,
			Timeout:  cfg.Ledger.RequestTimeout(),
			Retries:  uint(cfg.Ledger.Retries),
		})
	}

	nc := notify.New(db)
	tr := tracker.New(gw, nc, db, caller)

	srv := api.NewServer(tr, nc)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:  cfg,
		DB:      db,
		Gateway: gw,
		Tracker: tr,
		Notify:  nc,
		Server:  srv,
	}, nil
}

// Serve starts the HTTP server and the refresh loop, blocking until
// shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Warm-start from persisted snapshots before the first ledger read.
	if err := d.Tracker.Initialize(ctx); err != nil {
		log.Printf("[daemon] warm-start failed: %v", err)
	}

	// Prime the batch slot, then keep the mirror warm.
	go d.refreshLoop(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		d.Tracker.Dispose()
		_ = httpServer.Shutdown(shutdownCtx)
		if d.DB != nil {
			_ = d.DB.Close()
		}
	}()

	fmt.Printf("taskmirror serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// refreshLoop periodically re-fetches the configured range so the
// mirror tracks the ledger without consumer traffic.
func (d *Daemon) refreshLoop(ctx context.Context) {
	fetch := func() {
		rangeCtx, cancel := context.WithTimeout(ctx, d.Config.Ledger.RequestTimeout())
		defer cancel()
		err := d.Tracker.FetchRange(rangeCtx, d.Config.Mirror.RangeStart, d.Config.Mirror.RangeEnd, d.Config.Mirror.ScopeToCaller, nil)
		if err != nil {
			log.Printf("[daemon] mirror refresh failed: %v", err)
		}
	}

	fetch()

	if d.Config.Mirror.RefreshSeconds <= 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(d.Config.Mirror.RefreshSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fetch()
		}
	}
}

// Close releases daemon resources without serving.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	d.Tracker.Dispose()
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
