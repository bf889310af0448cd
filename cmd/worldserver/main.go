// Command worldserver runs the authoritative world server: it loads the
// content catalog, connects to Postgres, runs pending migrations, starts the
// tick loop, and serves the websocket session gateway.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aethermoor/worldserver/internal/config"
	"github.com/aethermoor/worldserver/internal/data"
	"github.com/aethermoor/worldserver/internal/db"
	"github.com/aethermoor/worldserver/internal/session"
	"github.com/aethermoor/worldserver/internal/world"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to world server config")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(*configPath, log); err != nil {
		log.Error("world server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, log *slog.Logger) error {
	cfg, err := config.LoadWorld(configPath)
	if err != nil {
		return err
	}

	catalog, err := data.Load(cfg.CatalogDir)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return err
	}

	store, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer store.Close()

	allocator, err := db.NewItemInstanceAllocator(ctx, store)
	if err != nil {
		return err
	}

	var gateway *session.Gateway
	runtime := world.NewRuntime(cfg, catalog, store, allocator, gatewayBroadcaster{&gateway}, log)
	if err := runtime.LoadMonsters(ctx); err != nil {
		return err
	}
	gateway = session.NewGateway(runtime, log)

	go runtime.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/ws", gateway)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ok, msg := store.HealthCheck(r.Context())
		if !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write([]byte(msg))
	})

	addr := cfg.BindAddress + ":" + itoa(cfg.Port)
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info("world server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	runtime.Shutdown(shutdownCtx)
	return nil
}

// gatewayBroadcaster defers to a *session.Gateway constructed after the
// world.Runtime it's injected into, breaking the construction-order cycle
// between the two (the runtime needs a Broadcaster at birth; the gateway
// needs a live runtime at birth).
type gatewayBroadcaster struct {
	gateway **session.Gateway
}

func (b gatewayBroadcaster) Broadcast(v any) {
	if *b.gateway != nil {
		(*b.gateway).Broadcast(v)
	}
}

func (b gatewayBroadcaster) Send(sessionID string, v any) {
	if *b.gateway != nil {
		(*b.gateway).Send(sessionID, v)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
