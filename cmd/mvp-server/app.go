package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"presales-mvp/internal/api"
	awsclients "presales-mvp/internal/common/aws"
	"presales-mvp/internal/common/bantc"
	"presales-mvp/internal/common/camunda"
	"presales-mvp/internal/common/config"
	"presales-mvp/internal/common/llm"
	"presales-mvp/internal/common/logger"
	"presales-mvp/internal/common/observability"
	"presales-mvp/internal/models"
	kmretrieval "presales-mvp/internal/workers/presales/km-retrieval"
	mvprun "presales-mvp/internal/workers/presales/mvp-run"
	"presales-mvp/internal/workers/presales/pricing"
	"presales-mvp/internal/workers/presales/prompts"
	"presales-mvp/internal/workers/presales/proposal"
	"presales-mvp/internal/workers/presales/qualify"
	"presales-mvp/pkg/registry"
)

// app holds the wired scenario pipeline shared by every command.
type app struct {
	cfg        *config.Config
	log        logger.Logger
	obs        *observability.Observability
	catalog    *registry.Catalog
	dispatcher *mvprun.Handler
	checks     []api.ReadinessCheck
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	obsOpts := []observability.Option{observability.WithLogger(log)}
	if cfg.Tracing.Enabled {
		sp, err := observability.NewOTLPSpanProcessor(ctx, cfg.Tracing.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("tracing init failed: %w", err)
		}
		obsOpts = append(obsOpts, observability.WithSpanProcessor(sp))
	}
	obs := observability.New(cfg.App.Name, obsOpts...)

	model, err := llm.NewModel(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm init failed: %w", err)
	}

	backend, err := kmretrieval.NewBackend(cfg.KM)
	if err != nil {
		return nil, fmt.Errorf("km backend init failed: %w", err)
	}
	retriever := kmretrieval.NewHandler(kmretrieval.LoadConfig(cfg.KM), backend, log)

	set, err := prompts.Load()
	if err != nil {
		return nil, fmt.Errorf("prompt load failed: %w", err)
	}

	notifier, err := newApprovalNotifier(ctx, cfg.Notifications, log)
	if err != nil {
		return nil, fmt.Errorf("approval notifier init failed: %w", err)
	}

	settings := config.EnvSettingsSource(cfg.KM.Embedding)
	agent := bantc.NewClient(cfg.Agent.BaseURL, cfg.Agent.APIKey, config.GetDuration(cfg.Agent.Timeout))

	scenarios := map[models.Scenario]mvprun.ScenarioHandler{
		models.ScenarioQualify:  qualify.NewHandler(qualify.LoadConfig(cfg.Agent), agent, log),
		models.ScenarioProposal: proposal.NewHandler(proposal.LoadConfig(cfg.LLM), retriever, model, settings, set.Proposal, log),
		models.ScenarioPricing:  pricing.NewHandler(pricing.LoadConfig(cfg.LLM), retriever, model, settings, set.Pricing, notifier, log),
	}

	a := &app{
		cfg:        cfg,
		log:        log,
		obs:        obs,
		catalog:    registry.Default(),
		dispatcher: mvprun.NewHandler(mvprun.LoadConfig(cfg.Camunda), scenarios, obs, log),
	}
	if p, ok := backend.(interface{ Ping(context.Context) error }); ok {
		a.checks = append(a.checks, api.ReadinessCheck{Name: "elasticsearch", Check: p.Ping})
	}

	log.Info("scenario pipeline ready", map[string]interface{}{
		"llmProvider": cfg.LLM.Provider,
		"kmBackend":   kmretrieval.LoadConfig(cfg.KM).Backend,
		"scenarios":   a.catalog.IDs(),
		"approvals":   notifier != nil,
	})
	return a, nil
}

// newApprovalNotifier returns nil when approval notifications are disabled.
func newApprovalNotifier(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (pricing.Notifier, error) {
	if !cfg.Approvals.Enabled {
		return nil, nil
	}

	snsClient, err := awsclients.NewSNSClient(ctx, cfg.Approvals.Region)
	if err != nil {
		return nil, err
	}
	sesClient, err := awsclients.NewSESClient(ctx, cfg.Approvals.Region)
	if err != nil {
		return nil, err
	}
	return pricing.NewApprovalNotifier(pricing.LoadNotifierConfig(cfg), snsClient, sesClient, log), nil
}

// serve runs the HTTP API, plus the Zeebe worker when camunda is enabled,
// until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	checks := a.checks

	var jobWorker *camunda.Worker
	if a.cfg.Camunda.Enabled {
		client, err := camunda.Connect(ctx, camunda.LoadClientConfig(a.cfg.Camunda), a.log)
		if err != nil {
			return fmt.Errorf("zeebe connect failed: %w", err)
		}
		defer func() { _ = client.Close() }()

		jobWorker = camunda.NewWorker(client.GetClient(), mvprun.TaskType, a.cfg.Camunda.MaxJobsActive,
			config.GetDuration(a.cfg.Camunda.Timeout), a.dispatcher, a.log)
		checks = append(checks, api.ReadinessCheck{Name: "zeebe", Check: client.HealthCheck})
	}

	handler, err := api.NewHandler(a.dispatcher, a.catalog, a.cfg.Server.MaxBodyBytes, a.log, checks...)
	if err != nil {
		return err
	}
	srv := api.NewServer(a.cfg.Server, handler, a.log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutdown signal received", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(a.cfg.Server))
		defer cancel()

		if jobWorker != nil {
			jobWorker.Stop()
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.log.Info("server stopped gracefully", nil)
	return nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.obs.Shutdown(ctx); err != nil {
		a.log.Warn("observability shutdown failed", map[string]interface{}{"error": err})
	}
}

func shutdownTimeout(cfg config.ServerConfig) time.Duration {
	if cfg.ShutdownTimeout <= 0 {
		return 30 * time.Second
	}
	return config.GetDuration(cfg.ShutdownTimeout)
}
