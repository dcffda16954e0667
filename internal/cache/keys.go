// internal/cache/keys.go
package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// RunReportPrefix namespaces every cached report for one run.
func RunReportPrefix(runID uuid.UUID) string {
	return fmt.Sprintf("report:run:%s:", runID)
}

func SummaryKey(runID uuid.UUID, filter string) string {
	return RunReportPrefix(runID) + "summary:" + filter
}

func GapsKey(runID uuid.UUID, filter string) string {
	return RunReportPrefix(runID) + "gaps:" + filter
}

func CompetitorKey(runID uuid.UUID, filter string) string {
	return RunReportPrefix(runID) + "competitors:" + filter
}

func CitationKey(runID uuid.UUID) string {
	return RunReportPrefix(runID) + "citations"
}

func TimeSeriesKey(clientID uuid.UUID, days int, filter string) string {
	return fmt.Sprintf("report:client:%s:timeseries:%d:%s", clientID, days, filter)
}
