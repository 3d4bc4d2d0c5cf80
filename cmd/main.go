package main

import (
	"context"
	"errors"
	logg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jaam8/vote_tracker/internal/api"
	"github.com/jaam8/vote_tracker/internal/chain"
	"github.com/jaam8/vote_tracker/internal/config"
	"github.com/jaam8/vote_tracker/internal/ledger"
	"github.com/jaam8/vote_tracker/internal/metrics"
	"github.com/jaam8/vote_tracker/internal/models"
	"github.com/jaam8/vote_tracker/internal/repository"
	srv "github.com/jaam8/vote_tracker/internal/service"
	"github.com/jaam8/vote_tracker/internal/timeline"
	"github.com/jaam8/vote_tracker/internal/tracker"
	"github.com/jaam8/vote_tracker/internal/wallet"
	"github.com/jaam8/vote_tracker/pkg/logger"
	"github.com/jaam8/vote_tracker/pkg/tarantool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout  = 10 * time.Second
	pollLoadAttempts = 5
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		logg.Fatalf("failed to load config: %s", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		logg.Fatalf("failed to initalize logger: %s", err)
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		logg.Fatalf("failed to register metrics: %s", err)
	}

	w, err := wallet.New(cfg.Wallet)
	if err != nil {
		logg.Fatalf("failed to open wallet: %s", err)
	}
	if address, ok := w.Address(); ok {
		log.Info("wallet connected",
			zap.String("kind", w.Kind()),
			zap.String("address", address.Hex()))
	}

	client, err := chain.Dial(ctx, cfg.Chain, w, log)
	if err != nil {
		logg.Fatalf("failed to connect to chain: %s", err)
	}

	var store ledger.Store
	if !cfg.Tarantool.Disabled {
		conn, err := tarantool.New(cfg.Tarantool)
		if err != nil {
			logg.Fatalf("failed to connect to Tarantool: %s", err)
		}
		defer conn.CloseGraceful()
		store = repository.New(conn, log)
	}

	votes := ledger.New(cfg.Chain.PollIndex, cfg.Chain.BackfillBlocks, client, store, m, log)
	if err := votes.Restore(); err != nil {
		log.Error("failed to restore votes, starting from backfill only", zap.Error(err))
	}

	txTracker := tracker.New(client, cfg.TxConfirmTimeout, m, log)
	defer txTracker.Close()

	service := srv.New(cfg.Chain.PollIndex, client, votes, txTracker, w, log)
	txTracker.OnSuccess(service.RecordConfirmed)

	poll, err := loadPoll(ctx, service)
	if err != nil {
		logg.Fatalf("failed to load poll %d: %s", cfg.Chain.PollIndex, err)
	}

	window, err := cfg.Window()
	if err != nil {
		logg.Fatalf("failed to read timeline window: %s", err)
	}
	refresher := timeline.NewRefresher(votes, poll.OptionIndices(), window, log)

	rest := api.NewRest(service, refresher, log, cfg.Chain.TxURL)
	httpServer := &http.Server{
		Addr:              ":" + cfg.RestPort,
		Handler:           rest.Router(reg, cfg.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return votes.Run(gctx)
	})
	g.Go(func() error {
		return refresher.Run(gctx)
	})
	g.Go(func() error {
		select {
		case <-votes.Backfilled():
			if _, err := service.Reconcile(gctx); err != nil {
				log.Warn("skipping vote totals reconciliation", zap.Error(err))
			}
		case <-gctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		log.Info("rest api listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	if cfg.ChatEnabled() {
		g.Go(func() error {
			return runChat(gctx, cfg, service, refresher, txTracker, log)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("vote tracker stopped with error", zap.Error(err))
	}
	log.Info("server graceful stopped")
}

// loadPoll retries transient read failures. A missing poll or an option
// without an animation is final.
func loadPoll(ctx context.Context, service *srv.VoteService) (*models.Poll, error) {
	return backoff.Retry(ctx, func() (*models.Poll, error) {
		poll, err := service.LoadPoll(ctx)
		if errors.Is(err, models.ErrPollNotFound) || errors.Is(err, models.ErrUnsupportedOption) {
			return nil, backoff.Permanent(err)
		}
		return poll, err
	}, backoff.WithMaxTries(pollLoadAttempts))
}
