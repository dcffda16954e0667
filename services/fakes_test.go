package services_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/repositories/interfaces"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory implementation of every repository interface,
// safe for the orchestrator's concurrent writers.
type fakeStore struct {
	mu sync.Mutex

	clients     map[uuid.UUID]*models.Client
	competitors map[uuid.UUID][]*models.Competitor
	predefined  map[uuid.UUID][]*models.PredefinedQuery

	runs       map[uuid.UUID]*models.QueryRun
	runQueries map[uuid.UUID][]*models.RunQuery
	responses  []*models.Response
	analyses   map[uuid.UUID]*models.ResponseAnalysis // by response ID
	usage      []*models.APIUsage

	analyticsRows []*models.AnalyzedResponse
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients:     make(map[uuid.UUID]*models.Client),
		competitors: make(map[uuid.UUID][]*models.Competitor),
		predefined:  make(map[uuid.UUID][]*models.PredefinedQuery),
		runs:        make(map[uuid.UUID]*models.QueryRun),
		runQueries:  make(map[uuid.UUID][]*models.RunQuery),
		analyses:    make(map[uuid.UUID]*models.ResponseAnalysis),
	}
}

func (f *fakeStore) repos() *services.RepositoryManager {
	return &services.RepositoryManager{
		ClientRepo:          (*fakeClientRepo)(f),
		CompetitorRepo:      (*fakeCompetitorRepo)(f),
		PredefinedQueryRepo: (*fakePredefinedQueryRepo)(f),
		QueryRunRepo:        (*fakeQueryRunRepo)(f),
		ResponseRepo:        (*fakeResponseRepo)(f),
		AnalysisRepo:        (*fakeAnalysisRepo)(f),
		APIUsageRepo:        (*fakeUsageRepo)(f),
		AnalyticsRepo:       (*fakeAnalyticsRepo)(f),
	}
}

type fakeClientRepo fakeStore

func (f *fakeClientRepo) GetByID(_ context.Context, clientID uuid.UUID) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	client, ok := f.clients[clientID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return client, nil
}

func (f *fakeClientRepo) GetBySlug(_ context.Context, slug string) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clients {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeClientRepo) List(_ context.Context) ([]*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Client, 0, len(f.clients))
	for _, c := range f.clients {
		out = append(out, c)
	}
	return out, nil
}

type fakeCompetitorRepo fakeStore

func (f *fakeCompetitorRepo) ListActiveByClient(_ context.Context, clientID uuid.UUID) ([]*models.Competitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.competitors[clientID], nil
}

type fakePredefinedQueryRepo fakeStore

func (f *fakePredefinedQueryRepo) ListActiveByClient(_ context.Context, clientID uuid.UUID) ([]*models.PredefinedQuery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.predefined[clientID], nil
}

type fakeQueryRunRepo fakeStore

func (f *fakeQueryRunRepo) Create(_ context.Context, run *models.QueryRun, queries []*models.RunQuery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *run
	f.runs[run.QueryRunID] = &copied
	f.runQueries[run.QueryRunID] = queries
	return nil
}

func (f *fakeQueryRunRepo) GetByID(_ context.Context, runID uuid.UUID) (*models.QueryRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := *run
	return &copied, nil
}

func (f *fakeQueryRunRepo) ListByClient(_ context.Context, clientID uuid.UUID, limit, offset int) ([]*models.QueryRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.QueryRun
	for _, run := range f.runs {
		if run.ClientID == clientID {
			copied := *run
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeQueryRunRepo) CountByClient(_ context.Context, clientID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, run := range f.runs {
		if run.ClientID == clientID {
			count++
		}
	}
	return count, nil
}

func (f *fakeQueryRunRepo) ListQueries(_ context.Context, runID uuid.UUID) ([]*models.RunQuery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runQueries[runID], nil
}

func (f *fakeQueryRunRepo) MarkRunning(_ context.Context, runID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok || run.Status != models.RunStatusPending {
		return interfaces.ErrNotFound
	}
	run.Status = models.RunStatusRunning
	return nil
}

func (f *fakeQueryRunRepo) IncrementCompleted(_ context.Context, runID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok {
		return interfaces.ErrNotFound
	}
	run.CompletedQueries++
	return nil
}

func (f *fakeQueryRunRepo) Finalize(_ context.Context, runID uuid.UUID, status string, errorMessage *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok || run.Status != models.RunStatusRunning {
		return interfaces.ErrNotFound
	}
	run.Status = status
	run.ErrorMessage = errorMessage
	now := time.Now().UTC()
	run.CompletedAt = &now
	return nil
}

func (f *fakeQueryRunRepo) Delete(_ context.Context, runID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.runs[runID]; !ok {
		return interfaces.ErrNotFound
	}
	delete(f.runs, runID)
	delete(f.runQueries, runID)
	return nil
}

type fakeResponseRepo fakeStore

func (f *fakeResponseRepo) Create(_ context.Context, response *models.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response)
	return nil
}

func (f *fakeResponseRepo) GetByID(_ context.Context, responseID uuid.UUID) (*models.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.responses {
		if r.ResponseID == responseID {
			return r, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeResponseRepo) ListByRun(_ context.Context, runID uuid.UUID) ([]*models.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Response
	for _, r := range f.responses {
		if r.QueryRunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeAnalysisRepo fakeStore

func (f *fakeAnalysisRepo) Create(_ context.Context, analysis *models.ResponseAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyses[analysis.ResponseID] = analysis
	return nil
}

func (f *fakeAnalysisRepo) DeleteByResponse(_ context.Context, responseID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.analyses, responseID)
	return nil
}

func (f *fakeAnalysisRepo) GetByResponse(_ context.Context, responseID uuid.UUID) (*models.ResponseAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	analysis, ok := f.analyses[responseID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return analysis, nil
}

type fakeUsageRepo fakeStore

func (f *fakeUsageRepo) Create(_ context.Context, usage *models.APIUsage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage = append(f.usage, usage)
	return nil
}

func (f *fakeUsageRepo) SumCostByClient(_ context.Context, clientID uuid.UUID, from, to time.Time) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, u := range f.usage {
		if u.ClientID == clientID && !u.CreatedAt.Before(from) && u.CreatedAt.Before(to) {
			total += u.TotalCost
		}
	}
	return total, nil
}

type fakeAnalyticsRepo fakeStore

func (f *fakeAnalyticsRepo) ListAnalyzedResponses(_ context.Context, clientID uuid.UUID, from, to time.Time) ([]*models.AnalyzedResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AnalyzedResponse
	for _, row := range f.analyticsRows {
		if !row.CreatedAt.Before(from) && row.CreatedAt.Before(to) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeAnalyticsRepo) ListAnalyzedResponsesByRun(_ context.Context, runID uuid.UUID) ([]*models.AnalyzedResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AnalyzedResponse
	for _, row := range f.analyticsRows {
		if row.QueryRunID == runID {
			out = append(out, row)
		}
	}
	return out, nil
}

// fakeCache is an in-memory cache.Cache.
type fakeCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string][]byte)}
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.items[key]
	return val, ok, nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *fakeCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

func (c *fakeCache) Ping(context.Context) error { return nil }

func (c *fakeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
