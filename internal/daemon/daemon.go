package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/joseph-ayodele/boxscore-tracker/internal/core"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/server"
	"github.com/joseph-ayodele/boxscore-tracker/internal/services/session"
)

// ErrLocked means another daemon already owns the store.
var ErrLocked = errors.New("another boxscore daemon is already running on this store")

// evictEvery is how often finished review sessions are dropped.
const evictEvery = 10 * time.Minute

// LockPath is the lock file guarding a store: the configured path, or the
// SQLite file name plus ".lock".
func LockPath(configured, dsn string) string {
	if configured != "" {
		return configured
	}
	if repository.IsPostgresDSN(dsn) {
		return ""
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path + ".lock"
}

// Daemon serves the review service for one store.
type Daemon struct {
	app    *core.App
	logger *slog.Logger
	lock   *flock.Flock
}

func New(app *core.App) *Daemon {
	d := &Daemon{app: app, logger: app.Logger}
	if path := LockPath(app.Config.Server.LockPath, app.Config.Database.DSN); path != "" {
		d.lock = flock.New(path)
	}
	return d
}

// Run takes the store lock, listens on the configured address and serves
// until ctx ends.
func (d *Daemon) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", d.app.Config.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", d.app.Config.Server.GRPCAddr, err)
	}
	return d.Serve(ctx, lis)
}

// Serve is Run on an existing listener.
func (d *Daemon) Serve(ctx context.Context, lis net.Listener) error {
	if d.lock != nil {
		ok, err := d.lock.TryLock()
		if err != nil {
			_ = lis.Close()
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			_ = lis.Close()
			return fmt.Errorf("%w (%s)", ErrLocked, d.lock.Path())
		}
		defer func() {
			if err := d.lock.Unlock(); err != nil {
				d.logger.Warn("daemon.unlock.failed", "error", err)
			}
		}()
		d.logger.Info("daemon.lock.acquired", "lock", d.lock.Path())
	}

	if err := d.app.DB.HealthCheck(ctx, d.app.Config.Database.DialTimeout); err != nil {
		_ = lis.Close()
		return fmt.Errorf("store health: %w", err)
	}

	go d.evictLoop(ctx)

	svc := session.NewService(d.app.Processor, d.app.Exporter, d.logger)
	srv := server.New(server.NewReviewService(svc, d.logger), d.logger)
	return srv.Serve(ctx, lis)
}

func (d *Daemon) evictLoop(ctx context.Context) {
	t := time.NewTicker(evictEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			d.app.Sessions.Evict(now.Add(-evictEvery))
		}
	}
}
