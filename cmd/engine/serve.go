package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"leadhunt-engine/internal/domain"
	"leadhunt-engine/internal/events"
	"leadhunt-engine/internal/httpapi"
	"leadhunt-engine/internal/inbox"
	"leadhunt-engine/internal/intake"
	"leadhunt-engine/internal/metrics"
	"leadhunt-engine/internal/scheduler"
	"leadhunt-engine/internal/secrets"
	"leadhunt-engine/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP engine",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.App.Addr
		}
		return serve(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default app.addr)")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, addr string) error {
	dir, err := dataDir()
	if err != nil {
		return err
	}

	lock, err := store.LockDataDir(dir)
	if err != nil {
		return eris.Wrapf(err, "data dir %s", dir)
	}
	defer lock.Unlock() //nolint:errcheck

	st, err := openStore(ctx, dir)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	sink, err := contactSink(st)
	if err != nil {
		return err
	}

	loc, localePath, err := loadLocale(dir, "")
	if err != nil {
		return err
	}

	m := metrics.New()
	hub := events.NewHub()

	p := newPipeline(loc, sink, m)
	p.OnStored = func(c domain.Contact) {
		hub.Publish(events.ContactCreated(c))
	}
	current := intake.NewCurrent(p)

	runner := inbox.NewRunner(cfg.Inbox, current, m, secrets.IMAPPassword)

	handler := httpapi.Handler(httpapi.Deps{
		Store:       st,
		Pipeline:    current,
		PipelineCfg: cfg.Pipeline,
		LocalePath:  localePath,
		Hub:         hub,
		Metrics:     m,
		Inbox:       runner,
		InboxCfg:    cfg.Inbox,
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return eris.Wrapf(err, "listen %s", addr)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	zap.L().Info("engine listening",
		zap.String("addr", "http://"+ln.Addr().String()),
		zap.String("store", cfg.Store.Driver),
		zap.String("locale", loc.Name),
		zap.Bool("inbox", cfg.Inbox.Enabled),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "http serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Inbox.Enabled {
		interval := time.Duration(cfg.Inbox.PollSeconds) * time.Second
		g.Go(func() error {
			scheduler.Every(gctx, interval, "inbox", func(ctx context.Context) error {
				sum, err := runner.RunOnce(ctx)
				if errors.Is(err, inbox.ErrAlreadyRunning) {
					return nil
				}
				hub.Publish(events.New(events.TypeInboxRun, sum))
				return err
			})
			return nil
		})
	}

	err = g.Wait()
	hub.Close()
	zap.L().Info("engine stopped")
	return err
}
