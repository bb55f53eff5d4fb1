package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"condo-ballots/internal/domain/ballot"
	"condo-ballots/internal/domain/member"
	"condo-ballots/internal/domain/tally"
	"condo-ballots/internal/domain/vote"
	api "condo-ballots/internal/http"
	"condo-ballots/internal/metrics"
	"condo-ballots/internal/notify"
	jwtpkg "condo-ballots/internal/platform/jwt"
	"condo-ballots/internal/worker"
)

func serveCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			logger := newLogger(cfg)
			api.SetLogger(logger)
			metrics.Register()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg)
			if err != nil {
				logger.Error("db connect error", "error", err)
				return err
			}
			defer st.close()

			if migrate {
				if err := st.migrate(ctx); err != nil {
					logger.Error("migrate failed", "error", err)
					return err
				}
			}

			var sink notify.Sink = notify.LogSink{Logger: logger}
			if cfg.NotifyWebhook != "" {
				sink = notify.NewWebhookSink(cfg.NotifyWebhook)
			}
			events := make(chan notify.Event, cfg.NotifyQueueSize)
			notifyWorker := worker.NewNotifyWorker(events, sink, logger)

			directory := member.NewDirectory(st.members)
			ballotSvc := ballot.NewService(st.ballots, directory, worker.NewQueue(events), cfg.PublicBaseURL, logger)
			voteSvc := vote.NewService(st.ballots, st.votes, logger).WithRetry(cfg.VoteRetries, cfg.VoteRetryDelay)
			evaluator := tally.NewEvaluator(st.ballots, st.votes, directory)

			router := api.NewRouter(api.Services{
				Ballots: ballotSvc,
				Votes:   voteSvc,
				Tally:   evaluator,
				Members: directory,
			}, jwtpkg.NewManager(cfg.JWTSecret, cfg.JWTIssuer), st.db, api.Limits{
				VoteRate:  rate.Limit(float64(cfg.VoteRatePerMin) / 60),
				VoteBurst: cfg.VoteRateBurst,
			})

			srv := &http.Server{
				Addr:    ":" + cfg.Port,
				Handler: router,
			}

			workerCtx, cancelWorker := context.WithCancel(context.Background())
			workerDone := make(chan struct{})
			go func() {
				defer close(workerDone)
				notifyWorker.Run(workerCtx)
			}()

			serveErr := make(chan error, 1)
			go func() {
				logger.Info("server listening", "port", cfg.Port, "driver", cfg.DBDriver)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case <-ctx.Done():
			case err := <-serveErr:
				if err != nil {
					logger.Error("listen error", "error", err)
					cancelWorker()
					<-workerDone
					return err
				}
			}
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			err = srv.Shutdown(shutdownCtx)
			cancelWorker()
			<-workerDone
			if err != nil {
				logger.Error("server shutdown error", "error", err)
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create tables before serving")
	return cmd
}
