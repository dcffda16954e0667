// services/run_orchestrator.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AI-Template-SDK/senso-visibility/internal/analyzer"
	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers"
)

// ConfigError is a run submission rejected before any provider call is made:
// missing brand configuration, empty query list, unknown provider.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// ProviderFactory builds the adapter for one provider name. Swapped out in
// tests.
type ProviderFactory func(providerName string, cfg *config.Config) (providers.AIProvider, error)

type runOrchestrator struct {
	cfg             *config.Config
	repos           *RepositoryManager
	costService     CostService
	analysisService AnalysisService
	providerFactory ProviderFactory
	logger          *slog.Logger
}

// NewRunOrchestrator creates the orchestrator with the real provider
// factory.
func NewRunOrchestrator(cfg *config.Config, repos *RepositoryManager, costService CostService, analysisService AnalysisService, logger *slog.Logger) RunOrchestrator {
	return NewRunOrchestratorWithFactory(cfg, repos, costService, analysisService, providers.NewProvider, logger)
}

// NewRunOrchestratorWithFactory creates the orchestrator with a custom
// provider factory.
func NewRunOrchestratorWithFactory(cfg *config.Config, repos *RepositoryManager, costService CostService, analysisService AnalysisService, factory ProviderFactory, logger *slog.Logger) RunOrchestrator {
	return &runOrchestrator{
		cfg:             cfg,
		repos:           repos,
		costService:     costService,
		analysisService: analysisService,
		providerFactory: factory,
		logger:          logger,
	}
}

func (o *runOrchestrator) SubmitCustomRun(ctx context.Context, clientID uuid.UUID, name string, queryTexts []string, runModels []models.RunModel) (*models.QueryRun, error) {
	client, err := o.repos.ClientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}

	brand := analyzer.Entity{Name: client.BrandName, Aliases: client.BrandAliases}

	var texts []string
	for _, t := range queryTexts {
		if strings.TrimSpace(t) != "" {
			texts = append(texts, strings.TrimSpace(t))
		}
	}
	if len(texts) == 0 {
		return nil, &ConfigError{Reason: "run has no queries"}
	}

	runID := uuid.New()
	queries := make([]*models.RunQuery, 0, len(texts))
	for i, text := range texts {
		queries = append(queries, &models.RunQuery{
			RunQueryID: uuid.New(),
			QueryRunID: runID,
			QueryText:  text,
			Branded:    analyzer.IsBrandedQuery(text, brand),
			OrderIndex: i,
		})
	}

	return o.createRun(ctx, runID, client, name, "custom", queries, runModels)
}

func (o *runOrchestrator) SubmitPredefinedRun(ctx context.Context, clientID uuid.UUID, name string, runModels []models.RunModel) (*models.QueryRun, error) {
	client, err := o.repos.ClientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}

	predefined, err := o.repos.PredefinedQueryRepo.ListActiveByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load predefined queries: %w", err)
	}
	if len(predefined) == 0 {
		return nil, &ConfigError{Reason: "client has no active predefined queries"}
	}

	runID := uuid.New()
	queries := make([]*models.RunQuery, 0, len(predefined))
	for i, pq := range predefined {
		queries = append(queries, &models.RunQuery{
			RunQueryID: uuid.New(),
			QueryRunID: runID,
			QueryText:  pq.QueryText,
			Branded:    pq.Branded,
			OrderIndex: i,
		})
	}

	return o.createRun(ctx, runID, client, name, "predefined", queries, runModels)
}

// createRun validates the shared submission rules and persists the pending
// run.
func (o *runOrchestrator) createRun(ctx context.Context, runID uuid.UUID, client *models.Client, name, runType string, queries []*models.RunQuery, runModels []models.RunModel) (*models.QueryRun, error) {
	if client.BrandName == "" {
		return nil, &ConfigError{Reason: "client has no brand name configured"}
	}
	if len(runModels) == 0 {
		runModels = client.DefaultModels
	}
	if len(runModels) == 0 {
		return nil, &ConfigError{Reason: "run has no provider models"}
	}
	for _, m := range runModels {
		if !providers.IsSupported(m.Provider) {
			return nil, &ConfigError{Reason: fmt.Sprintf("unsupported provider: %s", m.Provider)}
		}
		if m.Model == "" {
			return nil, &ConfigError{Reason: fmt.Sprintf("provider %s has no model", m.Provider)}
		}
	}

	run := &models.QueryRun{
		QueryRunID:   runID,
		ClientID:     client.ClientID,
		Name:         name,
		RunType:      runType,
		Status:       models.RunStatusPending,
		Models:       runModels,
		TotalQueries: len(queries) * len(runModels),
		CreatedAt:    time.Now().UTC(),
	}

	if err := o.repos.QueryRunRepo.Create(ctx, run, queries); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	o.logger.Info("run submitted",
		"run_id", run.QueryRunID,
		"client_id", client.ClientID,
		"run_type", runType,
		"queries", len(queries),
		"models", len(runModels),
		"total_calls", run.TotalQueries)
	return run, nil
}

func (o *runOrchestrator) ExecuteRun(ctx context.Context, runID uuid.UUID) error {
	run, err := o.repos.QueryRunRepo.GetByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	if run.IsTerminal() {
		return fmt.Errorf("run %s is already %s", runID, run.Status)
	}

	// Snapshot client configuration at run start so mid-run edits never
	// change results for already-issued calls.
	client, err := o.repos.ClientRepo.GetByID(ctx, run.ClientID)
	if err != nil {
		return fmt.Errorf("load client: %w", err)
	}
	competitors, err := o.repos.CompetitorRepo.ListActiveByClient(ctx, run.ClientID)
	if err != nil {
		return fmt.Errorf("load competitors: %w", err)
	}
	queries, err := o.repos.QueryRunRepo.ListQueries(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run queries: %w", err)
	}

	if err := o.repos.QueryRunRepo.MarkRunning(ctx, runID); err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}

	adapters := make(map[string]providers.AIProvider)
	for _, m := range run.Models {
		if _, ok := adapters[m.Provider]; ok {
			continue
		}
		adapter, err := o.providerFactory(m.Provider, o.cfg)
		if err != nil {
			msg := err.Error()
			if ferr := o.repos.QueryRunRepo.Finalize(ctx, runID, models.RunStatusFailed, &msg); ferr != nil {
				o.logger.Error("finalize after factory failure", "run_id", runID, "error", ferr)
			}
			return fmt.Errorf("create %s provider: %w", m.Provider, err)
		}
		adapters[m.Provider] = adapter
	}

	o.logger.Info("run started", "run_id", runID, "total_calls", run.TotalQueries)

	var successCount atomic.Int64
	group := new(errgroup.Group)
	group.SetLimit(o.cfg.Runner.MaxConcurrentCalls)

	for _, query := range queries {
		for _, m := range run.Models {
			query, m := query, m
			group.Go(func() error {
				o.executeCall(ctx, run, client, competitors, query, m, adapters[m.Provider], &successCount)
				return nil
			})
		}
	}
	group.Wait()

	status := models.RunStatusCompleted
	var errorMessage *string
	if successCount.Load() == 0 {
		status = models.RunStatusFailed
		msg := "all provider calls failed"
		errorMessage = &msg
	}
	if err := o.repos.QueryRunRepo.Finalize(ctx, runID, status, errorMessage); err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}

	o.logger.Info("run finished",
		"run_id", runID,
		"status", status,
		"succeeded", successCount.Load(),
		"total_calls", run.TotalQueries)
	return nil
}

// executeCall drives one (query, provider/model) pair to exactly one
// terminal response row, then bumps the run's progress counter.
func (o *runOrchestrator) executeCall(ctx context.Context, run *models.QueryRun, client *models.Client, competitors []*models.Competitor, query *models.RunQuery, m models.RunModel, adapter providers.AIProvider, successCount *atomic.Int64) {
	result, latency, callErr := o.callWithRetry(ctx, adapter, query.QueryText, m.Model)

	response := &models.Response{
		ResponseID: uuid.New(),
		QueryRunID: run.QueryRunID,
		RunQueryID: query.RunQueryID,
		Provider:   m.Provider,
		Model:      m.Model,
		LatencyMS:  int(latency.Milliseconds()),
		CreatedAt:  time.Now().UTC(),
	}
	if callErr != nil {
		response.Status = models.ResponseStatusError
		msg := callErr.Error()
		response.ErrorMessage = &msg
	} else {
		response.Status = models.ResponseStatusSuccess
		response.ResponseText = &result.Text
		response.InputTokens = result.InputTokens
		response.OutputTokens = result.OutputTokens
		response.TotalCost = o.costService.CalculateCost(m.Provider, m.Model, result.InputTokens, result.OutputTokens)
	}

	if err := o.repos.ResponseRepo.Create(ctx, response); err != nil {
		o.logger.Error("persist response", "run_id", run.QueryRunID, "run_query_id", query.RunQueryID, "error", err)
	}
	o.recordUsage(ctx, run, response)

	if callErr == nil {
		successCount.Add(1)
		if _, err := o.analysisService.AnalyzeResponse(ctx, client, competitors, response); err != nil {
			// analysis failures never fail the run
			o.logger.Warn("analyze response", "response_id", response.ResponseID, "error", err)
		}
	} else {
		o.logger.Warn("provider call failed",
			"run_id", run.QueryRunID,
			"provider", m.Provider,
			"model", m.Model,
			"error", callErr)
	}

	if err := o.repos.QueryRunRepo.IncrementCompleted(ctx, run.QueryRunID); err != nil {
		o.logger.Error("increment progress", "run_id", run.QueryRunID, "error", err)
	}
}

// callWithRetry executes the provider call with a per-call timeout, retrying
// retryable failures with exponential backoff and jitter. The returned
// latency covers the final attempt only.
func (o *runOrchestrator) callWithRetry(ctx context.Context, adapter providers.AIProvider, queryText, model string) (*providers.Result, time.Duration, error) {
	var lastErr error
	var latency time.Duration

	for attempt := 0; attempt <= o.cfg.Runner.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, o.backoff(attempt-1)); err != nil {
				return nil, latency, lastErr
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, o.cfg.Runner.ProviderTimeout)
		start := time.Now()
		result, err := adapter.Execute(callCtx, queryText, model)
		latency = time.Since(start)
		cancel()

		if err == nil {
			return result, latency, nil
		}
		lastErr = err

		var provErr *providers.ProviderError
		if !errors.As(err, &provErr) || !provErr.Retryable {
			break
		}
	}
	return nil, latency, lastErr
}

func (o *runOrchestrator) backoff(attempt int) time.Duration {
	base := o.cfg.Runner.RetryBaseDelay
	delay := base << attempt
	jitter := time.Duration(rand.Int63n(int64(base)/2 + 1))
	return delay + jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (o *runOrchestrator) recordUsage(ctx context.Context, run *models.QueryRun, response *models.Response) {
	usage := &models.APIUsage{
		UsageID:      uuid.New(),
		ClientID:     run.ClientID,
		QueryRunID:   run.QueryRunID,
		Provider:     response.Provider,
		Model:        response.Model,
		InputTokens:  response.InputTokens,
		OutputTokens: response.OutputTokens,
		TotalCost:    response.TotalCost,
		LatencyMS:    response.LatencyMS,
		Status:       response.Status,
		ErrorMessage: response.ErrorMessage,
		CreatedAt:    time.Now().UTC(),
	}
	if err := o.repos.APIUsageRepo.Create(ctx, usage); err != nil {
		o.logger.Error("record api usage", "run_id", run.QueryRunID, "error", err)
	}
}
