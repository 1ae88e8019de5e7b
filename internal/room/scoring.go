package room

import (
	"sort"
	"time"

	"quizroom-service/internal/domain"
)

const (
	maxQuestionScore  = 1000
	scoreStepPerPlace = 100
	minQuestionScore  = 100
)

// positionScore rewards speed: the first correct answer earns 1000, each
// later one 100 less, floored at 100.
func positionScore(position int) int {
	score := maxQuestionScore - position*scoreStepPerPlace
	if score < minQuestionScore {
		return minQuestionScore
	}
	return score
}

// scoreForTimestamp ranks the correct answers in the set by ascending
// submission time and returns the score earned by the answer submitted at
// target. Timestamp ties keep the first-seen order of the input slice.
// Incorrect and ungraded answers earn nothing.
func scoreForTimestamp(answers []*domain.Answer, target time.Time) int {
	correct := make([]*domain.Answer, 0, len(answers))
	for _, answer := range answers {
		if answer.Correct != nil && *answer.Correct {
			correct = append(correct, answer)
		}
	}
	sort.SliceStable(correct, func(i, j int) bool {
		return correct[i].SubmittedAt.Before(correct[j].SubmittedAt)
	})
	for position, answer := range correct {
		if answer.SubmittedAt.Equal(target) {
			return positionScore(position)
		}
	}
	return 0
}
