package results

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"

	"feedbackportal/internal/domain/assessment"
	"feedbackportal/internal/domain/roles"
)

type RoleResolver interface {
	Resolve(ctx context.Context) (roles.RoleSets, error)
}

type Decrypter interface {
	DecryptString(value []byte) (string, error)
}

type Service struct {
	store    StoreAPI
	resolver RoleResolver
	crypto   Decrypter
}

func NewService(store StoreAPI, resolver RoleResolver, crypto Decrypter) *Service {
	return &Service{store: store, resolver: resolver, crypto: crypto}
}

// WeightedResults aggregates one assessee's feedback, optionally for a single period.
func (s *Service) WeightedResults(ctx context.Context, assesseeID, periodID string) (WeightedResult, error) {
	rows, err := s.store.FeedbackRows(ctx, assesseeID, periodID)
	if err != nil {
		return WeightedResult{}, fmt.Errorf("load feedback rows: %w", err)
	}
	sets, err := s.resolver.Resolve(ctx)
	if err != nil {
		return WeightedResult{}, err
	}
	return Aggregate(rows, sets.SupervisorSet()), nil
}

func (s *Service) UserResults(ctx context.Context, userID, periodID string) (UserResult, error) {
	profile, err := s.store.Profile(ctx, userID)
	if err != nil {
		return UserResult{}, err
	}
	if periodID != "" {
		if _, err := s.store.Period(ctx, periodID); err != nil {
			return UserResult{}, err
		}
	}
	result, err := s.WeightedResults(ctx, userID, periodID)
	if err != nil {
		return UserResult{}, err
	}
	return UserResult{
		UserID:     profile.UserID,
		FullName:   profile.FullName,
		Position:   profile.Position,
		Department: profile.Department,
		PeriodID:   periodID,
		Result:     result,
		Label:      result.Label(),
	}, nil
}

// CanView reports whether viewer may read target's results: themselves, admins,
// supervisors within the same department, or anyone when the target opted in.
func (s *Service) CanView(ctx context.Context, viewerID, targetID string) (bool, error) {
	if viewerID == targetID {
		return true, nil
	}
	sets, err := s.resolver.Resolve(ctx)
	if err != nil {
		return false, err
	}
	if sets.IsAdmin(viewerID) {
		return true, nil
	}
	if sets.IsSupervisor(viewerID) {
		viewer, err := s.store.Profile(ctx, viewerID)
		if err != nil {
			return false, err
		}
		target, err := s.store.Profile(ctx, targetID)
		if err != nil {
			return false, err
		}
		if viewer.Department != "" && viewer.Department == target.Department {
			return true, nil
		}
	}
	return s.store.PublicView(ctx, targetID)
}

func (s *Service) Ranking(ctx context.Context, periodID string) ([]RankingEntry, error) {
	if _, err := s.store.Period(ctx, periodID); err != nil {
		return nil, err
	}
	results, err := s.periodResults(ctx, periodID)
	if err != nil {
		return nil, err
	}
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]RankingEntry, 0, len(results))
	for _, p := range profiles {
		result, ok := results[p.UserID]
		if !ok {
			continue
		}
		entries = append(entries, RankingEntry{
			UserID:        p.UserID,
			FullName:      p.FullName,
			Department:    p.Department,
			OverallScore:  result.OverallScore,
			TotalFeedback: result.TotalFeedback,
		})
	}
	RankEntries(entries)
	return entries, nil
}

// RankEntries orders by score desc with unrated entries last and assigns ranks.
func RankEntries(entries []RankingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].OverallScore, entries[j].OverallScore
		switch {
		case a == nil && b == nil:
			return entries[i].FullName < entries[j].FullName
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a > *b
		case entries[i].TotalFeedback != entries[j].TotalFeedback:
			return entries[i].TotalFeedback > entries[j].TotalFeedback
		default:
			return entries[i].FullName < entries[j].FullName
		}
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// SnapshotPeriodTx stores every assessee's aggregate for the period in
// assessment_history using the caller's transaction. Rows are upserted, so a
// rerun overwrites the previous snapshot.
func (s *Service) SnapshotPeriodTx(ctx context.Context, tx pgx.Tx, periodID string) (int, error) {
	results, err := s.periodResults(ctx, periodID)
	if err != nil {
		return 0, err
	}
	written := 0
	for userID, result := range results {
		aspects, err := json.Marshal(result.Aspects)
		if err != nil {
			return written, err
		}
		if err := s.store.UpsertHistoryTx(ctx, tx, userID, periodID, result.OverallScore, result.TotalFeedback, aspects); err != nil {
			return written, fmt.Errorf("store history for %s: %w", userID, err)
		}
		written++
	}
	return written, nil
}

func (s *Service) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	return s.store.History(ctx, userID)
}

// Comments returns the assessee's comments without any assessor identity.
func (s *Service) Comments(ctx context.Context, assesseeID, periodID string) ([]Comment, error) {
	rows, err := s.store.Comments(ctx, assesseeID, periodID)
	if err != nil {
		return nil, err
	}
	out := make([]Comment, 0, len(rows))
	for _, row := range rows {
		text, err := s.decrypt(row.Comment)
		if err != nil {
			slog.Warn("comment decrypt failed", "assesseeId", assesseeID, "err", err)
			continue
		}
		if text == "" {
			continue
		}
		out = append(out, Comment{Aspect: row.Aspect, Comment: text})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return assessment.AspectOrder(out[i].Aspect) < assessment.AspectOrder(out[j].Aspect)
	})
	return out, nil
}

func (s *Service) periodResults(ctx context.Context, periodID string) (map[string]WeightedResult, error) {
	rows, err := s.store.FeedbackRowsForPeriod(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("load period feedback: %w", err)
	}
	sets, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	supervisors := sets.SupervisorSet()
	byAssessee := map[string][]FeedbackRow{}
	for _, row := range rows {
		byAssessee[row.AssesseeID] = append(byAssessee[row.AssesseeID], row)
	}
	out := make(map[string]WeightedResult, len(byAssessee))
	for assesseeID, assesseeRows := range byAssessee {
		out[assesseeID] = Aggregate(assesseeRows, supervisors)
	}
	return out, nil
}

func (s *Service) decrypt(value []byte) (string, error) {
	if s.crypto == nil {
		return string(value), nil
	}
	return s.crypto.DecryptString(value)
}
