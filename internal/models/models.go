// internal/models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses. A run transitions pending -> running -> completed|failed and
// never leaves a terminal state.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Response statuses.
const (
	ResponseStatusSuccess = "success"
	ResponseStatusError   = "error"
)

// Position buckets for a brand/competitor mention within a response.
const (
	PositionFirstThird   = "first_third"
	PositionMiddleThird  = "middle_third"
	PositionLastThird    = "last_third"
	PositionNotMentioned = "not_mentioned"
)

// Context classifications for the text surrounding a mention.
const (
	ContextPositive     = "positive"
	ContextNeutral      = "neutral"
	ContextNegative     = "negative"
	ContextNotMentioned = "not_mentioned"
)

// Client is the tenant scope: the brand being tracked plus its configuration.
// The core reads clients, it never writes them.
type Client struct {
	ClientID       uuid.UUID  `db:"client_id" json:"client_id"`
	Name           string     `db:"name" json:"name"`
	Slug           string     `db:"slug" json:"slug"`
	BrandName      string     `db:"brand_name" json:"brand_name"`
	BrandAliases   []string   `db:"-" json:"brand_aliases"`
	WebsiteDomains []string   `db:"-" json:"website_domains"`
	PrimaryColor   string     `db:"primary_color" json:"primary_color"`
	DefaultModels  []RunModel `db:"-" json:"default_models"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// RunModel is one provider/model pair a run executes against.
type RunModel struct {
	Provider string `db:"provider" json:"provider"`
	Model    string `db:"model" json:"model"`
}

// Competitor belongs to exactly one client. Read-only for the core.
type Competitor struct {
	CompetitorID uuid.UUID `db:"competitor_id" json:"competitor_id"`
	ClientID     uuid.UUID `db:"client_id" json:"client_id"`
	Name         string    `db:"name" json:"name"`
	Aliases      []string  `db:"-" json:"aliases"`
	Website      *string   `db:"website" json:"website,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PredefinedQuery is a persisted, reusable query for a client.
type PredefinedQuery struct {
	QueryID    uuid.UUID `db:"query_id" json:"query_id"`
	ClientID   uuid.UUID `db:"client_id" json:"client_id"`
	QueryText  string    `db:"query_text" json:"query_text"`
	Category   string    `db:"category" json:"category"`
	Branded    bool      `db:"branded" json:"branded"`
	OrderIndex int       `db:"order_index" json:"order_index"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RunQuery is one query inside a run, with its branded flag frozen at
// submission time. Custom queries get the flag computed from the text once.
type RunQuery struct {
	RunQueryID uuid.UUID `db:"run_query_id" json:"run_query_id"`
	QueryRunID uuid.UUID `db:"query_run_id" json:"query_run_id"`
	QueryText  string    `db:"query_text" json:"query_text"`
	Branded    bool      `db:"branded" json:"branded"`
	OrderIndex int       `db:"order_index" json:"order_index"`
}

// QueryRun is an ordered batch of queries submitted together against a set of
// provider/model pairs.
type QueryRun struct {
	QueryRunID       uuid.UUID  `db:"query_run_id" json:"query_run_id"`
	ClientID         uuid.UUID  `db:"client_id" json:"client_id"`
	Name             string     `db:"name" json:"name"`
	RunType          string     `db:"run_type" json:"run_type"` // "predefined" or "custom"
	Status           string     `db:"status" json:"status"`
	Models           []RunModel `db:"-" json:"models"`
	TotalQueries     int        `db:"total_queries" json:"total_queries"`
	CompletedQueries int        `db:"completed_queries" json:"completed_queries"`
	ErrorMessage     *string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	CompletedAt      *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// Response is the terminal outcome of one (query, provider, model) call.
// Immutable once written; a re-run supersedes it with a new row.
type Response struct {
	ResponseID   uuid.UUID `db:"response_id" json:"response_id"`
	QueryRunID   uuid.UUID `db:"query_run_id" json:"query_run_id"`
	RunQueryID   uuid.UUID `db:"run_query_id" json:"run_query_id"`
	Provider     string    `db:"provider" json:"provider"`
	Model        string    `db:"model" json:"model"`
	Status       string    `db:"status" json:"status"`
	ResponseText *string   `db:"response_text" json:"response_text,omitempty"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	LatencyMS    int       `db:"latency_ms" json:"latency_ms"`
	InputTokens  int       `db:"input_tokens" json:"input_tokens"`
	OutputTokens int       `db:"output_tokens" json:"output_tokens"`
	TotalCost    float64   `db:"total_cost" json:"total_cost"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ResponseAnalysis is derived 1:1 from a successful Response. It is a pure
// function of the response text plus the client's brand/competitor lists at
// analysis time, computed once and only recomputed on explicit re-analysis.
type ResponseAnalysis struct {
	AnalysisID       uuid.UUID `db:"analysis_id" json:"analysis_id"`
	ResponseID       uuid.UUID `db:"response_id" json:"response_id"`
	BrandMentioned   bool      `db:"brand_mentioned" json:"brand_mentioned"`
	BrandPosition    string    `db:"brand_position" json:"brand_position"`
	BrandContext     string    `db:"brand_context" json:"brand_context"`
	BrandFirstOffset *int      `db:"brand_first_offset" json:"brand_first_offset,omitempty"`

	CompetitorMentions []CompetitorMention `db:"-" json:"competitor_mentions"`
	Citations          []Citation          `db:"-" json:"citations"`

	AnalyzedAt time.Time `db:"analyzed_at" json:"analyzed_at"`
}

// CompetitorMention is one competitor's result within a ResponseAnalysis.
type CompetitorMention struct {
	MentionID   uuid.UUID `db:"mention_id" json:"mention_id"`
	AnalysisID  uuid.UUID `db:"analysis_id" json:"analysis_id"`
	Name        string    `db:"name" json:"name"`
	Position    string    `db:"position" json:"position"`
	Context     string    `db:"context" json:"context"`
	FirstOffset int       `db:"first_offset" json:"first_offset"`
}

// Citation is a URL extracted from a response, normalized to its domain.
type Citation struct {
	CitationID    uuid.UUID `db:"citation_id" json:"citation_id"`
	AnalysisID    uuid.UUID `db:"analysis_id" json:"analysis_id"`
	URL           string    `db:"url" json:"url"`
	Domain        string    `db:"domain" json:"domain"`
	IsBrandDomain bool      `db:"is_brand_domain" json:"is_brand_domain"`
}

// APIUsage is one row in the provider-call ledger.
type APIUsage struct {
	UsageID      uuid.UUID `db:"usage_id" json:"usage_id"`
	ClientID     uuid.UUID `db:"client_id" json:"client_id"`
	QueryRunID   uuid.UUID `db:"query_run_id" json:"query_run_id"`
	Provider     string    `db:"provider" json:"provider"`
	Model        string    `db:"model" json:"model"`
	InputTokens  int       `db:"input_tokens" json:"input_tokens"`
	OutputTokens int       `db:"output_tokens" json:"output_tokens"`
	TotalCost    float64   `db:"total_cost" json:"total_cost"`
	LatencyMS    int       `db:"latency_ms" json:"latency_ms"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AnalyzedResponse is the joined row the reporting engine aggregates over:
// one successful response, its analysis, and the run query metadata needed
// for grouping.
type AnalyzedResponse struct {
	ResponseID     uuid.UUID `db:"response_id" json:"response_id"`
	QueryRunID     uuid.UUID `db:"query_run_id" json:"query_run_id"`
	RunQueryID     uuid.UUID `db:"run_query_id" json:"run_query_id"`
	QueryText      string    `db:"query_text" json:"query_text"`
	Branded        bool      `db:"branded" json:"branded"`
	Provider       string    `db:"provider" json:"provider"`
	Model          string    `db:"model" json:"model"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	BrandMentioned bool      `db:"brand_mentioned" json:"brand_mentioned"`
	BrandPosition  string    `db:"brand_position" json:"brand_position"`
	BrandContext   string    `db:"brand_context" json:"brand_context"`

	CompetitorMentions []CompetitorMention `db:"-" json:"competitor_mentions"`
	Citations          []Citation          `db:"-" json:"citations"`
}

// IsTerminal reports whether the run has reached a terminal status.
func (r *QueryRun) IsTerminal() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}

// Progress returns completion as a percentage, 0 when no calls are planned.
func (r *QueryRun) Progress() float64 {
	if r.TotalQueries == 0 {
		return 0
	}
	return float64(r.CompletedQueries) / float64(r.TotalQueries) * 100
}
