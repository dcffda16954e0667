package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

func strPtr(s string) *string { return &s }

func TestAnalyzeResponse(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)
	competitors := []*models.Competitor{
		{CompetitorID: uuid.New(), ClientID: client.ClientID, Name: "Widgetco", IsActive: true},
	}

	response := &models.Response{
		ResponseID:   uuid.New(),
		QueryRunID:   uuid.New(),
		RunQueryID:   uuid.New(),
		Provider:     "openai",
		Model:        "gpt-4.1",
		Status:       models.ResponseStatusSuccess,
		ResponseText: strPtr("Acme Inc and Widgetco are top choices. See https://acme.com/pricing for details."),
		CreatedAt:    time.Now().UTC(),
	}

	svc := services.NewAnalysisService(store.repos(), testLogger())
	analysis, err := svc.AnalyzeResponse(context.Background(), client, competitors, response)
	if err != nil {
		t.Fatalf("AnalyzeResponse: %v", err)
	}

	if !analysis.BrandMentioned {
		t.Error("brand not detected")
	}
	if analysis.BrandPosition != models.PositionFirstThird {
		t.Errorf("brand position = %q, want first_third", analysis.BrandPosition)
	}
	if len(analysis.CompetitorMentions) != 1 || analysis.CompetitorMentions[0].Name != "Widgetco" {
		t.Errorf("competitor mentions = %+v, want Widgetco", analysis.CompetitorMentions)
	}
	if len(analysis.Citations) != 1 {
		t.Fatalf("citations = %+v, want one", analysis.Citations)
	}
	if analysis.Citations[0].Domain != "acme.com" || !analysis.Citations[0].IsBrandDomain {
		t.Errorf("citation = %+v, want brand domain acme.com", analysis.Citations[0])
	}

	stored, err := store.repos().AnalysisRepo.GetByResponse(context.Background(), response.ResponseID)
	if err != nil {
		t.Fatalf("analysis not persisted: %v", err)
	}
	if stored.AnalysisID != analysis.AnalysisID {
		t.Errorf("stored analysis %s, want %s", stored.AnalysisID, analysis.AnalysisID)
	}
}

func TestAnalyzeResponseRejectsFailedCalls(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)
	svc := services.NewAnalysisService(store.repos(), testLogger())

	errored := &models.Response{
		ResponseID:   uuid.New(),
		Status:       models.ResponseStatusError,
		ErrorMessage: strPtr("rate_limited"),
	}
	if _, err := svc.AnalyzeResponse(context.Background(), client, nil, errored); err == nil {
		t.Error("analyzed an errored response")
	}

	textless := &models.Response{
		ResponseID: uuid.New(),
		Status:     models.ResponseStatusSuccess,
	}
	if _, err := svc.AnalyzeResponse(context.Background(), client, nil, textless); err == nil {
		t.Error("analyzed a response with no text")
	}
}

func TestReanalyzeRun(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store)

	run := &models.QueryRun{
		QueryRunID: uuid.New(),
		ClientID:   client.ClientID,
		Status:     models.RunStatusCompleted,
		CreatedAt:  time.Now().UTC(),
	}
	store.runs[run.QueryRunID] = run

	good := &models.Response{
		ResponseID:   uuid.New(),
		QueryRunID:   run.QueryRunID,
		RunQueryID:   uuid.New(),
		Status:       models.ResponseStatusSuccess,
		ResponseText: strPtr("AcmeCloud is the strongest option here."),
		CreatedAt:    time.Now().UTC(),
	}
	failed := &models.Response{
		ResponseID:   uuid.New(),
		QueryRunID:   run.QueryRunID,
		RunQueryID:   uuid.New(),
		Status:       models.ResponseStatusError,
		ErrorMessage: strPtr("timeout"),
		CreatedAt:    time.Now().UTC(),
	}
	store.responses = append(store.responses, good, failed)

	svc := services.NewAnalysisService(store.repos(), testLogger())

	// First pass: "AcmeCloud" is not an alias yet, so the brand is missed.
	count, err := svc.ReanalyzeRun(context.Background(), run.QueryRunID)
	if err != nil {
		t.Fatalf("ReanalyzeRun: %v", err)
	}
	if count != 1 {
		t.Errorf("reanalyzed %d responses, want 1 (errored responses skipped)", count)
	}
	first, err := store.repos().AnalysisRepo.GetByResponse(context.Background(), good.ResponseID)
	if err != nil {
		t.Fatalf("load analysis: %v", err)
	}
	if first.BrandMentioned {
		t.Error("brand detected before the alias existed")
	}

	// Second pass with the new alias supersedes the stale analysis.
	client.BrandAliases = append(client.BrandAliases, "AcmeCloud")
	if _, err := svc.ReanalyzeRun(context.Background(), run.QueryRunID); err != nil {
		t.Fatalf("ReanalyzeRun: %v", err)
	}
	second, err := store.repos().AnalysisRepo.GetByResponse(context.Background(), good.ResponseID)
	if err != nil {
		t.Fatalf("load analysis: %v", err)
	}
	if !second.BrandMentioned {
		t.Error("brand not detected after adding the alias")
	}
	if second.AnalysisID == first.AnalysisID {
		t.Error("reanalysis kept the stale analysis row")
	}
}
