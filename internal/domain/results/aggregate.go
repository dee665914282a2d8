package results

import (
	"sort"
	"strconv"

	"feedbackportal/internal/domain/assessment"
)

// Aggregate computes weighted per-aspect scores. Every assessor counts once
// per aspect no matter how many indicator rows they submitted.
func Aggregate(rows []FeedbackRow, supervisors map[string]bool) WeightedResult {
	type ratingSum struct {
		total float64
		count int
	}
	byAspect := map[string]map[string]*ratingSum{}
	allAssessors := map[string]bool{}
	for _, row := range rows {
		assessors, ok := byAspect[row.Aspect]
		if !ok {
			assessors = map[string]*ratingSum{}
			byAspect[row.Aspect] = assessors
		}
		sum, ok := assessors[row.AssessorID]
		if !ok {
			sum = &ratingSum{}
			assessors[row.AssessorID] = sum
		}
		sum.total += row.Rating
		sum.count++
		allAssessors[row.AssessorID] = true
	}

	result := WeightedResult{TotalFeedback: len(allAssessors)}
	var finals []float64
	for aspect, assessors := range byAspect {
		var supRatings, peerRatings []float64
		for assessorID, sum := range assessors {
			rating := sum.total / float64(sum.count)
			if supervisors[assessorID] {
				supRatings = append(supRatings, rating)
			} else {
				peerRatings = append(peerRatings, rating)
			}
		}
		score := AspectScore{
			Aspect:            aspect,
			SupervisorAverage: mean(supRatings),
			PeerAverage:       mean(peerRatings),
			SupervisorCount:   len(supRatings),
			PeerCount:         len(peerRatings),
			TotalFeedback:     len(assessors),
		}
		score.FinalScore = combine(score.SupervisorAverage, score.PeerAverage)
		if score.FinalScore != nil {
			finals = append(finals, *score.FinalScore)
		}
		result.Aspects = append(result.Aspects, score)
	}
	sort.Slice(result.Aspects, func(i, j int) bool {
		oi, oj := assessment.AspectOrder(result.Aspects[i].Aspect), assessment.AspectOrder(result.Aspects[j].Aspect)
		if oi != oj {
			return oi < oj
		}
		return result.Aspects[i].Aspect < result.Aspects[j].Aspect
	})
	result.OverallScore = mean(finals)
	return result
}

func combine(supervisor, peer *float64) *float64 {
	switch {
	case supervisor != nil && peer != nil:
		v := *supervisor*SupervisorWeight + *peer*PeerWeight
		return &v
	case supervisor != nil:
		v := *supervisor
		return &v
	case peer != nil:
		v := *peer
		return &v
	default:
		return nil
	}
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var total float64
	for _, v := range values {
		total += v
	}
	avg := total / float64(len(values))
	return &avg
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
