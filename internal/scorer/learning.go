package scorer

import (
	"fmt"
	"strings"

	"github.com/sells-group/dealmatch-cli/internal/model"
)

// LearningResult is the history-derived score adjustment. A negative penalty
// is effectively a bonus for buyers with a strong approval record.
type LearningResult struct {
	Penalty float64
	Note    string
}

// minLearningActions is the history floor below which a buyer's pattern is
// too thin to act on.
const minLearningActions = 3

// LearningPenalty derives a score adjustment from a buyer's historical
// approve/pass behavior, clamped to [-5, 25].
func LearningPenalty(pattern *model.LearningPattern) LearningResult {
	if pattern == nil || pattern.TotalActions < minLearningActions {
		return LearningResult{Penalty: 0, Note: "insufficient history"}
	}

	var (
		penalty float64
		notes   []string
	)

	rejections := pattern.RejectionReasons
	if rejections[model.RejectionSize] >= 2 {
		penalty += 10
		notes = append(notes, "repeated size rejections")
	}
	if rejections[model.RejectionGeography] >= 2 {
		penalty += 8
		notes = append(notes, "repeated geography rejections")
	}
	if rejections[model.RejectionService] >= 2 {
		penalty += 8
		notes = append(notes, "repeated service rejections")
	}
	if rejections[model.RejectionTiming] >= 3 {
		penalty += 5
		notes = append(notes, "repeated timing rejections")
	}
	if rejections[model.RejectionPortfolioConflict] >= 1 {
		penalty += 3
		notes = append(notes, "portfolio conflict history")
	}

	if pattern.ApprovalRate >= 0.7 {
		penalty -= 5
		notes = append(notes, fmt.Sprintf("strong approval rate (%.0f%%)", pattern.ApprovalRate*100))
	} else if pattern.ApprovalRate < 0.3 {
		penalty += 3
		notes = append(notes, fmt.Sprintf("weak approval rate (%.0f%%)", pattern.ApprovalRate*100))
	}

	penalty = clamp(penalty, -5, 25)
	if len(notes) == 0 {
		return LearningResult{Penalty: penalty, Note: "no notable pattern"}
	}
	return LearningResult{Penalty: penalty, Note: strings.Join(notes, "; ")}
}
