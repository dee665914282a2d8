package triwulan

import "sort"

// RequiredRatings is the number of fully rated candidates a voter needs.
func RequiredRatings(candidateCount int) int {
	if candidateCount < MaxRatedCandidates {
		return candidateCount
	}
	return MaxRatedCandidates
}

// RateableCandidates is the number of candidates voterID may rate. A voter
// never rates their own candidacy.
func RateableCandidates(candidates []Candidate, voterID string) int {
	n := 0
	for _, c := range candidates {
		if c.UserID != voterID {
			n++
		}
	}
	return n
}

// Completed counts filled ratings over distinct candidates and compares
// against RequiredRatings of the rateable count. Nothing to rate is never complete.
func Completed(ratings []Rating, rateable int) (int, bool) {
	seen := map[string]bool{}
	for _, r := range ratings {
		if r.Filled() {
			seen[r.CandidateID] = true
		}
	}
	required := RequiredRatings(rateable)
	return len(seen), required > 0 && len(seen) >= required
}

// SortScores orders by final score, then number of raters, then name.
func SortScores(scores []Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if a.NumRaters != b.NumRaters {
			return a.NumRaters > b.NumRaters
		}
		return a.FullName < b.FullName
	})
}

func ValidateScores(scores []int) error {
	if len(scores) != CriteriaCount {
		return ErrScoreCount
	}
	for _, s := range scores {
		if s < MinScore || s > MaxScore {
			return ErrScoreOutOfRange
		}
	}
	return nil
}
