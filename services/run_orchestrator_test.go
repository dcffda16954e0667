package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/testutil"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

func testRunnerConfig() *config.Config {
	return &config.Config{
		Runner: config.RunnerConfig{
			MaxConcurrentCalls: 4,
			MaxRetries:         2,
			RetryBaseDelay:     time.Millisecond,
			ProviderTimeout:    time.Second,
		},
	}
}

func seedClient(store *fakeStore) *models.Client {
	client := &models.Client{
		ClientID:       uuid.New(),
		Name:           "Acme Inc",
		Slug:           "acme",
		BrandName:      "Acme Inc",
		BrandAliases:   []string{"Acme"},
		WebsiteDomains: []string{"acme.com"},
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	store.clients[client.ClientID] = client
	return client
}

func newOrchestrator(store *fakeStore, mocks map[string]*testutil.MockProvider) services.RunOrchestrator {
	factory := func(providerName string, _ *config.Config) (providers.AIProvider, error) {
		mock, ok := mocks[providerName]
		if !ok {
			return nil, fmt.Errorf("no adapter for %s", providerName)
		}
		return mock, nil
	}
	repos := store.repos()
	analysis := services.NewAnalysisService(repos, testLogger())
	return services.NewRunOrchestratorWithFactory(testRunnerConfig(), repos, services.NewCostService(), analysis, factory, testLogger())
}

func TestSubmitCustomRun(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)
	orch := newOrchestrator(store, nil)

	runModels := []models.RunModel{{Provider: "openai", Model: "gpt-4.1"}}
	run, err := orch.SubmitCustomRun(context.Background(), client.ClientID, "weekly check",
		[]string{"best crm software", "is Acme good for startups", "  "}, runModels)
	if err != nil {
		t.Fatalf("SubmitCustomRun: %v", err)
	}

	if run.Status != models.RunStatusPending {
		t.Errorf("status = %q, want pending", run.Status)
	}
	if run.RunType != "custom" {
		t.Errorf("run type = %q, want custom", run.RunType)
	}
	if run.TotalQueries != 2 {
		t.Errorf("total queries = %d, want 2 (blank query dropped, 2 queries x 1 model)", run.TotalQueries)
	}

	queries := store.runQueries[run.QueryRunID]
	if len(queries) != 2 {
		t.Fatalf("persisted %d queries, want 2", len(queries))
	}
	if queries[0].Branded {
		t.Errorf("%q flagged branded, want non-branded", queries[0].QueryText)
	}
	if !queries[1].Branded {
		t.Errorf("%q flagged non-branded, want branded", queries[1].QueryText)
	}
}

func TestSubmitCustomRunValidation(t *testing.T) {
	tests := []struct {
		name      string
		brandName string
		queries   []string
		runModels []models.RunModel
	}{
		{
			name:      "no queries",
			brandName: "Acme Inc",
			queries:   []string{"", "   "},
			runModels: []models.RunModel{{Provider: "openai", Model: "gpt-4.1"}},
		},
		{
			name:      "no models and no defaults",
			brandName: "Acme Inc",
			queries:   []string{"best crm"},
		},
		{
			name:      "unsupported provider",
			brandName: "Acme Inc",
			queries:   []string{"best crm"},
			runModels: []models.RunModel{{Provider: "cohere", Model: "command-r"}},
		},
		{
			name:      "missing model",
			brandName: "Acme Inc",
			queries:   []string{"best crm"},
			runModels: []models.RunModel{{Provider: "openai"}},
		},
		{
			name:      "no brand configured",
			queries:   []string{"best crm"},
			runModels: []models.RunModel{{Provider: "openai", Model: "gpt-4.1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			client := seedClient(store)
			client.BrandName = tt.brandName
			orch := newOrchestrator(store, nil)

			_, err := orch.SubmitCustomRun(context.Background(), client.ClientID, "run", tt.queries, tt.runModels)
			var cfgErr *services.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error = %v, want ConfigError", err)
			}
			if len(store.runs) != 0 {
				t.Errorf("rejected submission persisted %d runs", len(store.runs))
			}
		})
	}
}

func TestSubmitCustomRunDefaultModels(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)
	client.DefaultModels = []models.RunModel{{Provider: "anthropic", Model: "claude-sonnet-4-5"}}
	orch := newOrchestrator(store, nil)

	run, err := orch.SubmitCustomRun(context.Background(), client.ClientID, "run", []string{"best crm"}, nil)
	if err != nil {
		t.Fatalf("SubmitCustomRun: %v", err)
	}
	if len(run.Models) != 1 || run.Models[0].Provider != "anthropic" {
		t.Errorf("run models = %+v, want client defaults", run.Models)
	}
}

func TestSubmitPredefinedRun(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)
	store.predefined[client.ClientID] = []*models.PredefinedQuery{
		{QueryID: uuid.New(), ClientID: client.ClientID, QueryText: "best crm software", Branded: false},
		{QueryID: uuid.New(), ClientID: client.ClientID, QueryText: "Acme vs Widgetco", Branded: true},
	}
	orch := newOrchestrator(store, nil)

	runModels := []models.RunModel{{Provider: "openai", Model: "gpt-4.1"}}
	run, err := orch.SubmitPredefinedRun(context.Background(), client.ClientID, "library run", runModels)
	if err != nil {
		t.Fatalf("SubmitPredefinedRun: %v", err)
	}
	if run.RunType != "predefined" {
		t.Errorf("run type = %q, want predefined", run.RunType)
	}

	queries := store.runQueries[run.QueryRunID]
	if len(queries) != 2 {
		t.Fatalf("persisted %d queries, want 2", len(queries))
	}
	// stored flags carry over, they are not recomputed
	if queries[0].Branded || !queries[1].Branded {
		t.Errorf("branded flags = %v/%v, want false/true", queries[0].Branded, queries[1].Branded)
	}
}

func TestSubmitPredefinedRunEmptyLibrary(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)
	orch := newOrchestrator(store, nil)

	_, err := orch.SubmitPredefinedRun(context.Background(), client.ClientID, "library run",
		[]models.RunModel{{Provider: "openai", Model: "gpt-4.1"}})
	var cfgErr *services.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want ConfigError", err)
	}
}

func TestExecuteRunFanOut(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)
	store.competitors[client.ClientID] = []*models.Competitor{
		{CompetitorID: uuid.New(), ClientID: client.ClientID, Name: "Widgetco", IsActive: true},
	}

	openaiMock := testutil.NewMockProvider("openai")
	anthropicMock := testutil.NewMockProvider("anthropic")
	respond := func(ctx context.Context, queryText, model string) (*providers.Result, error) {
		return &providers.Result{Text: "Acme Inc and Widgetco are both solid picks.", InputTokens: 12, OutputTokens: 80}, nil
	}
	openaiMock.ExecuteFunc = respond
	anthropicMock.ExecuteFunc = respond

	orch := newOrchestrator(store, map[string]*testutil.MockProvider{
		"openai":    openaiMock,
		"anthropic": anthropicMock,
	})

	runModels := []models.RunModel{
		{Provider: "openai", Model: "gpt-4.1"},
		{Provider: "anthropic", Model: "claude-sonnet-4-5"},
	}
	run, err := orch.SubmitCustomRun(context.Background(), client.ClientID, "fan out",
		[]string{"best crm software", "best helpdesk software"}, runModels)
	if err != nil {
		t.Fatalf("SubmitCustomRun: %v", err)
	}

	if err := orch.ExecuteRun(context.Background(), run.QueryRunID); err != nil {
		t.Fatalf("ExecuteRun: %v", err)
	}

	final := store.runs[run.QueryRunID]
	if final.Status != models.RunStatusCompleted {
		t.Errorf("run status = %q, want completed", final.Status)
	}
	if final.CompletedQueries != 4 {
		t.Errorf("completed queries = %d, want 4", final.CompletedQueries)
	}
	if final.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}

	if len(store.responses) != 4 {
		t.Fatalf("persisted %d responses, want 4 (2 queries x 2 models)", len(store.responses))
	}
	seen := make(map[string]bool)
	for _, r := range store.responses {
		key := r.RunQueryID.String() + "/" + r.Provider + "/" + r.Model
		if seen[key] {
			t.Errorf("duplicate terminal response for %s", key)
		}
		seen[key] = true
		if r.Status != models.ResponseStatusSuccess {
			t.Errorf("response status = %q, want success", r.Status)
		}
		if r.TotalCost <= 0 {
			t.Errorf("response cost = %v, want > 0", r.TotalCost)
		}
	}

	if len(store.usage) != 4 {
		t.Errorf("recorded %d usage rows, want 4", len(store.usage))
	}
	if len(store.analyses) != 4 {
		t.Errorf("stored %d analyses, want 4", len(store.analyses))
	}
	for _, analysis := range store.analyses {
		if !analysis.BrandMentioned {
			t.Error("analysis missed the brand mention")
		}
		if len(analysis.CompetitorMentions) != 1 || analysis.CompetitorMentions[0].Name != "Widgetco" {
			t.Errorf("competitor mentions = %+v, want Widgetco", analysis.CompetitorMentions)
		}
	}
}

func TestExecuteRunRetriesRetryableFailures(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)

	mock := testutil.NewMockProvider("openai")
	mock.FailNTimes(2, &providers.ProviderError{
		Provider:  "openai",
		Kind:      providers.ErrKindRateLimited,
		Retryable: true,
		Err:       errors.New("429"),
	}, "Acme Inc leads the market.")

	orch := newOrchestrator(store, map[string]*testutil.MockProvider{"openai": mock})
	run, err := orch.SubmitCustomRun(context.Background(), client.ClientID, "retry",
		[]string{"best crm"}, []models.RunModel{{Provider: "openai", Model: "gpt-4.1"}})
	if err != nil {
		t.Fatalf("SubmitCustomRun: %v", err)
	}

	if err := orch.ExecuteRun(context.Background(), run.QueryRunID); err != nil {
		t.Fatalf("ExecuteRun: %v", err)
	}

	if got := mock.CallCount(); got != 3 {
		t.Errorf("provider called %d times, want 3 (2 failures + success)", got)
	}
	if store.runs[run.QueryRunID].Status != models.RunStatusCompleted {
		t.Errorf("run status = %q, want completed", store.runs[run.QueryRunID].Status)
	}
	if len(store.responses) != 1 || store.responses[0].Status != models.ResponseStatusSuccess {
		t.Fatalf("responses = %+v, want one success", store.responses)
	}
}

func TestExecuteRunDoesNotRetryInvalidRequests(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)

	mock := testutil.NewMockProvider("openai")
	mock.FailNTimes(10, &providers.ProviderError{
		Provider: "openai",
		Kind:     providers.ErrKindInvalidRequest,
		Err:      errors.New("400"),
	}, "unreached")

	orch := newOrchestrator(store, map[string]*testutil.MockProvider{"openai": mock})
	run, err := orch.SubmitCustomRun(context.Background(), client.ClientID, "no retry",
		[]string{"best crm"}, []models.RunModel{{Provider: "openai", Model: "gpt-4.1"}})
	if err != nil {
		t.Fatalf("SubmitCustomRun: %v", err)
	}

	if err := orch.ExecuteRun(context.Background(), run.QueryRunID); err != nil {
		t.Fatalf("ExecuteRun: %v", err)
	}

	if got := mock.CallCount(); got != 1 {
		t.Errorf("provider called %d times, want 1", got)
	}

	final := store.runs[run.QueryRunID]
	if final.Status != models.RunStatusFailed {
		t.Errorf("run status = %q, want failed", final.Status)
	}
	if final.ErrorMessage == nil || *final.ErrorMessage != "all provider calls failed" {
		t.Errorf("error message = %v, want %q", final.ErrorMessage, "all provider calls failed")
	}
	if len(store.responses) != 1 || store.responses[0].Status != models.ResponseStatusError {
		t.Fatalf("responses = %+v, want one error row", store.responses)
	}
	if len(store.analyses) != 0 {
		t.Errorf("stored %d analyses for a failed call, want 0", len(store.analyses))
	}
	if final.CompletedQueries != 1 {
		t.Errorf("completed queries = %d, want 1 (failed calls still count)", final.CompletedQueries)
	}
}

func TestExecuteRunPartialFailureCompletes(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)

	mock := testutil.NewMockProvider("openai")
	mock.ExecuteFunc = func(ctx context.Context, queryText, model string) (*providers.Result, error) {
		if queryText == "bad query" {
			return nil, &providers.ProviderError{Provider: "openai", Kind: providers.ErrKindInvalidRequest, Err: errors.New("400")}
		}
		return &providers.Result{Text: "Acme Inc is great.", InputTokens: 5, OutputTokens: 20}, nil
	}

	orch := newOrchestrator(store, map[string]*testutil.MockProvider{"openai": mock})
	run, err := orch.SubmitCustomRun(context.Background(), client.ClientID, "partial",
		[]string{"good query", "bad query"}, []models.RunModel{{Provider: "openai", Model: "gpt-4.1"}})
	if err != nil {
		t.Fatalf("SubmitCustomRun: %v", err)
	}

	if err := orch.ExecuteRun(context.Background(), run.QueryRunID); err != nil {
		t.Fatalf("ExecuteRun: %v", err)
	}

	final := store.runs[run.QueryRunID]
	if final.Status != models.RunStatusCompleted {
		t.Errorf("run status = %q, want completed when at least one call succeeds", final.Status)
	}
	if final.CompletedQueries != 2 {
		t.Errorf("completed queries = %d, want 2", final.CompletedQueries)
	}

	byStatus := make(map[string]int)
	for _, r := range store.responses {
		byStatus[r.Status]++
	}
	if byStatus[models.ResponseStatusSuccess] != 1 || byStatus[models.ResponseStatusError] != 1 {
		t.Errorf("responses by status = %v, want 1 success + 1 error", byStatus)
	}
}

func TestExecuteRunRejectsTerminalRun(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)
	orch := newOrchestrator(store, map[string]*testutil.MockProvider{"openai": testutil.NewMockProvider("openai")})

	run, err := orch.SubmitCustomRun(context.Background(), client.ClientID, "done",
		[]string{"best crm"}, []models.RunModel{{Provider: "openai", Model: "gpt-4.1"}})
	if err != nil {
		t.Fatalf("SubmitCustomRun: %v", err)
	}
	store.runs[run.QueryRunID].Status = models.RunStatusCompleted

	if err := orch.ExecuteRun(context.Background(), run.QueryRunID); err == nil {
		t.Fatal("ExecuteRun accepted a terminal run")
	}
}

func TestExecuteRunFactoryFailureFailsRun(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)
	// no mocks registered, so the factory rejects every provider
	orch := newOrchestrator(store, nil)

	run, err := orch.SubmitCustomRun(context.Background(), client.ClientID, "misconfigured",
		[]string{"best crm"}, []models.RunModel{{Provider: "openai", Model: "gpt-4.1"}})
	if err != nil {
		t.Fatalf("SubmitCustomRun: %v", err)
	}

	if err := orch.ExecuteRun(context.Background(), run.QueryRunID); err == nil {
		t.Fatal("ExecuteRun succeeded with a failing provider factory")
	}

	final := store.runs[run.QueryRunID]
	if final.Status != models.RunStatusFailed {
		t.Errorf("run status = %q, want failed", final.Status)
	}
	if final.ErrorMessage == nil {
		t.Error("error message not recorded")
	}
}
