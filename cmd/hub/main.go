// Command hub runs the agent coordination hub server: it binds the JSON
// API, the push-session endpoint, and the shared-directory file watcher
// to a single SQLite-backed process.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/agentnet/hub/internal/api"
	"github.com/agentnet/hub/internal/eventbus"
	"github.com/agentnet/hub/internal/fswatch"
	"github.com/agentnet/hub/internal/hubconfig"
	"github.com/agentnet/hub/internal/id"
	"github.com/agentnet/hub/internal/logging"
	"github.com/agentnet/hub/internal/metrics"
	"github.com/agentnet/hub/internal/model"
	"github.com/agentnet/hub/internal/notifier"
	"github.com/agentnet/hub/internal/pushreg"
	"github.com/agentnet/hub/internal/sharedfs"
	"github.com/agentnet/hub/internal/state"
	"github.com/agentnet/hub/internal/store"
)

const version = "0.1.0"

func main() {
	logging.Setup()

	if err := run(); err != nil {
		slog.Error("hub exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := hubconfig.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if lvl, err := logging.ParseLevel(cfg.LogLevel); err == nil {
		logging.SetLevel(lvl)
	}

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	st := store.New(db)
	hubState := state.New(st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := hubState.Hydrate(ctx); err != nil {
		return fmt.Errorf("hydrate state: %w", err)
	}

	roomBus := eventbus.New(func(_ string, _ bool) {
		metrics.ActiveRooms.Set(float64(roomBusActiveRooms(hubState)))
	})
	agentBus := eventbus.New(nil)
	sessions := pushreg.New()
	notify := notifier.New(st, hubState, sessions, agentBus)

	sharedDirFS, err := sharedfs.New(cfg.SharedDir)
	if err != nil {
		return fmt.Errorf("open shared directory: %w", err)
	}

	watcher, err := fswatch.New(cfg.SharedDir)
	if err != nil {
		return fmt.Errorf("start file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	go watcher.Run(ctx)
	go fanOutFileEvents(ctx, watcher, hubState, roomBus)

	deps := &api.Deps{
		State:     hubState,
		Store:     st,
		Notifier:  notify,
		RoomBus:   roomBus,
		AgentBus:  agentBus,
		Sessions:  sessions,
		SharedFS:  sharedDirFS,
		SharedDir: cfg.SharedDir,
	}
	handler := api.NewRouter(deps)

	h2s := &http2.Server{}
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(handler, h2s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.PrintBanner(version, cfg.Addr())
	logging.PrintAccessURL(cfg.Addr())

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("hub listening", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if _, err := db.ExecContext(shutdownCtx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		slog.Warn("wal checkpoint on shutdown failed", "error", err)
	}
	return nil
}

// fanOutFileEvents persists each filesystem event into every currently
// active room's message log and publishes it on the room bus — the
// "persist like any other message" resolution of SPEC_FULL.md's file-
// change open question. Fan-out (rather than per-room watchers) follows
// the REDESIGN FLAGS: a single process-wide watcher serves all rooms.
func fanOutFileEvents(ctx context.Context, w *fswatch.Watcher, st *state.State, bus *eventbus.Bus) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events():
			if !ok {
				return
			}
			metrics.FileEventsTotal.WithLabelValues(string(ev.Action)).Inc()

			rooms := st.ListRooms()
			for _, room := range rooms {
				msg := model.Message{
					ID:        id.Generate(),
					Room:      room.Name,
					AgentName: "System",
					Content:   fmt.Sprintf("%s: %s", ev.Action, ev.RelPath),
					Type:      model.MessageFileChange,
					Timestamp: time.Now().UTC(),
					Metadata: map[string]any{
						"filePath": ev.RelPath,
						"action":   string(ev.Action),
					},
				}
				saved, err := st.AppendMessage(ctx, msg)
				if err != nil {
					slog.Warn("failed to persist file event", "room", room.Name, "error", err)
					continue
				}
				bus.Publish(room.Name, &eventbus.Event{Event: eventbus.KindMessage, Payload: saved})
			}
		}
	}
}

func roomBusActiveRooms(st *state.State) int {
	count := 0
	for _, room := range st.ListRooms() {
		if st.AgentCount(room.Name) > 0 {
			count++
		}
	}
	return count
}
