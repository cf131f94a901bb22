package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/aide-lab/kairos/pkg/cli/config"
	httpctrl "github.com/aide-lab/kairos/pkg/controller/http"
	"github.com/aide-lab/kairos/pkg/service/llm"
	"github.com/aide-lab/kairos/pkg/service/scheduler"
	"github.com/aide-lab/kairos/pkg/usecase"
	"github.com/aide-lab/kairos/pkg/utils/async"
	"github.com/aide-lab/kairos/pkg/utils/logging"
	"github.com/aide-lab/kairos/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var tickInterval time.Duration
	var queueWorkers int
	var ledgerRetention time.Duration
	var rulesCfg config.Rules
	var repoCfg config.Repository
	var slackCfg config.Slack
	var geminiCfg config.Gemini
	var calendarCfg config.Calendar
	var githubCfg config.GitHub

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("KAIROS_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "tick-interval",
			Usage:       "Trigger clock tick interval",
			Value:       time.Minute,
			Sources:     cli.EnvVars("KAIROS_TICK_INTERVAL"),
			Destination: &tickInterval,
		},
		&cli.IntFlag{
			Name:        "queue-workers",
			Usage:       "Background task queue worker count",
			Value:       4,
			Sources:     cli.EnvVars("KAIROS_QUEUE_WORKERS"),
			Destination: &queueWorkers,
		},
		&cli.DurationFlag{
			Name:        "ledger-retention",
			Usage:       "How long delivery records are kept before pruning",
			Value:       45 * 24 * time.Hour,
			Sources:     cli.EnvVars("KAIROS_LEDGER_RETENTION"),
			Destination: &ledgerRetention,
		},
	}

	// Add shared config flags
	flags = append(flags, rulesCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, calendarCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the engine: HTTP webhook server plus trigger clock",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rules, err := rulesCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load rules configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			slackSvc, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure slack service")
			}

			hours, err := rules.BusinessHours()
			if err != nil {
				return err
			}
			offerTTL, err := rules.OfferTTL()
			if err != nil {
				return err
			}

			ucOpts := []usecase.Option{
				usecase.WithSlackService(slackSvc),
				usecase.WithBusinessHours(hours),
				usecase.WithOfferTTL(offerTTL),
			}

			calSvc, err := calendarCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure calendar service")
			}
			if calSvc != nil {
				ucOpts = append(ucOpts, usecase.WithCalendarService(calSvc))
				logging.Default().Info("Calendar service enabled")
			} else {
				logging.Default().Info("Calendar credentials not configured, availability features disabled")
			}

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini client")
			}
			if llmClient != nil {
				llmSvc, err := llm.New(llmClient)
				if err != nil {
					return goerr.Wrap(err, "failed to initialize llm service")
				}
				ucOpts = append(ucOpts, usecase.WithLLMService(llmSvc))
				logging.Default().Info("Gemini service enabled")
			} else {
				logging.Default().Info("Gemini not configured, text understanding disabled")
			}

			ticketSvc, err := githubCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure ticket service")
			}
			if ticketSvc != nil {
				ucOpts = append(ucOpts, usecase.WithTicketService(ticketSvc))
				logging.Default().Info("GitHub issue enrichment enabled")
			}

			uc := usecase.New(repo, ucOpts...)

			triggerRules, err := rules.TriggerRules()
			if err != nil {
				return err
			}
			resolver, err := scheduler.NewResolver(repo, calSvc, triggerRules, uc)
			if err != nil {
				return goerr.Wrap(err, "failed to build trigger resolver")
			}

			clock := scheduler.NewClock(repo, resolver,
				scheduler.WithTickInterval(tickInterval))
			if err := clock.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start trigger clock")
			}
			defer clock.Stop()

			go func() {
				ticker := time.NewTicker(24 * time.Hour)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						removed, err := repo.Delivery().PruneBefore(ctx, time.Now().Add(-ledgerRetention))
						if err != nil {
							logging.Default().Error("delivery ledger prune failed", "error", err.Error())
							continue
						}
						if removed > 0 {
							logging.Default().Info("pruned delivery records", "count", removed)
						}
					}
				}
			}()

			queue := async.NewQueue(queueWorkers, 0)
			queue.Start(ctx)
			defer queue.Stop()

			srvOpts := []httpctrl.Options{}
			if slackCfg.IsWebhookConfigured() {
				handler := httpctrl.NewSlackWebhookHandler(uc, queue)
				srvOpts = append(srvOpts, httpctrl.WithSlackWebhook(handler, slackCfg.SigningSecret()))
				logging.Default().Info("Slack webhook handler enabled")
			} else {
				logging.Default().Warn("Slack signing secret not configured, webhook endpoint disabled")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(srvOpts...),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("HTTP server starting", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "http server failed")
					return
				}
				errCh <- nil
			}()

			select {
			case <-ctx.Done():
				logging.Default().Info("shutdown signal received")
			case err := <-errCh:
				if err != nil {
					return err
				}
				return nil
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shut down http server")
			}
			return <-errCh
		},
	}
}
