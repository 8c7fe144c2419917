package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/heartpredict/diagnosis"
	"github.com/YuminosukeSato/heartpredict/internal/store"
	"github.com/YuminosukeSato/heartpredict/internal/web"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
	"github.com/YuminosukeSato/heartpredict/pkg/log"
)

const (
	addrFlag    = "addr"
	historyFlag = "history"
)

func newServeCmd() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server"},
		Usage:   "Train once and serve the prediction form",
		Action:  cmdServe,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  addrFlag,
				Usage: "Address to listen on (overrides server.addr)",
			},
			&cli.StringFlag{
				Name:  historyFlag,
				Usage: "SQLite file recording served predictions (overrides store.path)",
			},
		},
	}
}

func cmdServe(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(ctx)
	if v := cmd.String(addrFlag); v != "" {
		cfg.Server.Addr = v
	}
	if v := cmd.String(historyFlag); v != "" {
		cfg.Store.Path = v
	}
	logger := log.GetLoggerWithName("serve")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the model is trained once and shared read-only by all requests
	_, res, err := train(ctx, cfg)
	if err != nil {
		return err
	}
	predictor, err := diagnosis.NewPredictor(res.Model, cfg.Server.CacheSize)
	if err != nil {
		return err
	}

	history, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer history.Close()

	srv, err := web.NewServer(predictor, res.Report, history)
	if err != nil {
		return err
	}
	httpServer := web.NewHTTPServer(cfg.Server.Addr, srv.Router(), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server started", log.ServerAddrKey, cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "error starting server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "error shutting down server")
		}
		return nil
	})
	return g.Wait()
}
