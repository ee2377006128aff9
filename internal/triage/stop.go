package triage

import "github.com/yourorg/pretriaged/internal/reference"

// ShouldStop evaluates the four stop rules in priority order, grounded on
// the original stop-evaluation engine. topDiseaseScore is the best disease
// candidate's score_0_1 (0 if there are no candidates); finalScores must
// already be sorted descending by the C6 tie-break so finalScores[0] and
// finalScores[1] are the top two.
func ShouldStop(turnIndex int, topDiseaseScore float64, finalScores []FinalScore, noQuestionAvailable bool, rules reference.StopRules) StopDecision {
	if turnIndex >= rules.MaxQuestions {
		return StopDecision{Stop: true, Reason: StopReasonMaxQuestionsReached}
	}
	if topDiseaseScore >= rules.HighConfidenceDiseaseScore {
		return StopDecision{Stop: true, Reason: StopReasonHighConfidenceSingleDisease}
	}
	if len(finalScores) >= 2 {
		gap := finalScores[0].FinalScore - finalScores[1].FinalScore
		if gap >= rules.MinSpecialtyScoreGap {
			return StopDecision{Stop: true, Reason: StopReasonClearSpecialtyWinner}
		}
	}
	if noQuestionAvailable {
		return StopDecision{Stop: true, Reason: StopReasonNoMoreDiscriminativeQuestions}
	}
	return StopDecision{Stop: false}
}
