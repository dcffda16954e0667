// internal/analyzer/position.go
package analyzer

import "github.com/AI-Template-SDK/senso-visibility/internal/models"

// PositionBucket places a match offset into the first, middle, or last third
// of the response text.
func PositionBucket(offset, totalLen int) string {
	if totalLen <= 0 || offset < 0 || offset >= totalLen {
		return models.PositionNotMentioned
	}

	switch bucket := offset * 3 / totalLen; bucket {
	case 0:
		return models.PositionFirstThird
	case 1:
		return models.PositionMiddleThird
	default:
		return models.PositionLastThird
	}
}
