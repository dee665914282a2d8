package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

type Encrypter interface {
	EncryptString(value string) ([]byte, error)
	DecryptString(value []byte) (string, error)
}

type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

const (
	notifyFeedbackReceived = "feedback_received"
	notifyReminder         = "assessment_reminder"
)

type Service struct {
	store    StoreAPI
	crypto   Encrypter
	notifier Notifier
}

func NewService(store StoreAPI, crypto Encrypter, notifier Notifier) *Service {
	return &Service{store: store, crypto: crypto, notifier: notifier}
}

func (s *Service) MyAssignments(ctx context.Context, assessorID, periodID string) ([]Assignment, error) {
	return s.store.ListAssignmentsForAssessor(ctx, assessorID, periodID)
}

func (s *Service) Detail(ctx context.Context, assessorID, assignmentID string) (AssignmentDetail, error) {
	a, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return AssignmentDetail{}, err
	}
	if a.AssessorID != assessorID {
		return AssignmentDetail{}, ErrNotAssessor
	}
	rows, err := s.store.ResponsesForAssignment(ctx, assignmentID)
	if err != nil {
		return AssignmentDetail{}, err
	}
	ratings, err := s.collapseResponses(rows)
	if err != nil {
		return AssignmentDetail{}, err
	}
	return AssignmentDetail{Assignment: a, Aspects: Catalog, Ratings: ratings}, nil
}

// Submit replaces every response of the assignment and marks it completed.
func (s *Service) Submit(ctx context.Context, assessorID, assignmentID string, sub Submission) error {
	a, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if a.AssessorID != assessorID {
		return ErrNotAssessor
	}
	if a.AssessorID == a.AssesseeID {
		return ErrSelfAssessment
	}
	if a.PeriodComplete {
		return ErrPeriodClosed
	}

	rows, err := s.ExpandSubmission(sub)
	if err != nil {
		return err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.store.DeleteResponsesTx(ctx, tx, assignmentID); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	if err := s.store.InsertResponsesTx(ctx, tx, assignmentID, rows); err != nil {
		return fmt.Errorf("insert responses: %w", err)
	}
	if err := s.store.MarkCompletedTx(ctx, tx, assignmentID); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.notify(ctx, a.AssesseeID, notifyFeedbackReceived, "Penilaian baru diterima", "Anda menerima penilaian 360° baru untuk periode ini.")
	return nil
}

// ExpandSubmission validates the aspect ratings and applies each rating to
// every indicator of its aspect. The comment is kept on the first indicator row.
func (s *Service) ExpandSubmission(sub Submission) ([]ResponseRow, error) {
	if len(sub.Ratings) == 0 {
		return nil, ErrEmptySubmission
	}
	seen := map[string]bool{}
	var rows []ResponseRow
	for _, r := range sub.Ratings {
		aspect, ok := LookupAspect(r.Aspect)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAspect, r.Aspect)
		}
		if seen[aspect.Key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAspect, aspect.Name)
		}
		seen[aspect.Key] = true
		if r.Rating < MinRating || r.Rating > MaxRating {
			return nil, fmt.Errorf("%w: %s", ErrRatingOutOfRange, aspect.Name)
		}
		comment := strings.TrimSpace(r.Comment)
		if len(comment) > MaxCommentLength {
			return nil, fmt.Errorf("%w: %s", ErrCommentTooLong, aspect.Name)
		}
		var encrypted []byte
		if comment != "" {
			var err error
			encrypted, err = s.encrypt(comment)
			if err != nil {
				return nil, fmt.Errorf("encrypt comment: %w", err)
			}
		}
		for i, indicator := range aspect.Indicators {
			row := ResponseRow{Aspect: aspect.Name, Indicator: indicator, Rating: r.Rating}
			if i == 0 {
				row.Comment = encrypted
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *Service) Team(ctx context.Context, supervisorID string) ([]TeamMember, string, error) {
	periodID, err := s.store.ActivePeriodID(ctx)
	if err != nil {
		return nil, "", err
	}
	department, err := s.store.ProfileDepartment(ctx, supervisorID)
	if err != nil {
		return nil, "", err
	}
	members, err := s.store.TeamMembers(ctx, supervisorID, department, periodID)
	if err != nil {
		return nil, "", err
	}
	return members, periodID, nil
}

// RateTeamMember creates the supervisor's assignment on demand, then submits.
func (s *Service) RateTeamMember(ctx context.Context, supervisorID, assesseeID string, sub Submission) (string, error) {
	if supervisorID == assesseeID {
		return "", ErrSelfAssessment
	}
	members, periodID, err := s.Team(ctx, supervisorID)
	if err != nil {
		return "", err
	}
	found := false
	for _, m := range members {
		if m.UserID == assesseeID {
			found = true
			break
		}
	}
	if !found {
		return "", ErrNotTeamMember
	}
	assignmentID, err := s.store.EnsureAssignment(ctx, supervisorID, assesseeID, periodID)
	if err != nil {
		return "", fmt.Errorf("ensure assignment: %w", err)
	}
	if err := s.Submit(ctx, supervisorID, assignmentID, sub); err != nil {
		return "", err
	}
	return assignmentID, nil
}

func (s *Service) CreateAssignments(ctx context.Context, periodID string, inputs []AssignmentInput) ([]string, error) {
	completed, err := s.store.PeriodCompleted(ctx, periodID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActivePeriod
	}
	if err != nil {
		return nil, err
	}
	if completed {
		return nil, ErrPeriodClosed
	}
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if in.AssessorID == in.AssesseeID {
			return ids, ErrSelfAssessment
		}
		id, err := s.store.EnsureAssignment(ctx, in.AssessorID, in.AssesseeID, periodID)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Service) Progress(ctx context.Context, periodID string) (Progress, error) {
	if periodID == "" {
		active, err := s.store.ActivePeriodID(ctx)
		if err != nil {
			return Progress{}, err
		}
		periodID = active
	}
	total, completed, err := s.store.PeriodProgress(ctx, periodID)
	if err != nil {
		return Progress{}, err
	}
	p := Progress{PeriodID: periodID, Total: total, Completed: completed}
	if total > 0 {
		p.Rate = float64(completed) / float64(total) * 100
	}
	return p, nil
}

// SendReminders notifies assessors with open assignments in the active period.
func (s *Service) SendReminders(ctx context.Context) (int, error) {
	periodID, err := s.store.ActivePeriodID(ctx)
	if errors.Is(err, ErrNoActivePeriod) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	pending, err := s.store.PendingAssignments(ctx, periodID)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, p := range pending {
		body := fmt.Sprintf("Penilaian untuk %s belum diselesaikan.", p.AssesseeName)
		s.notify(ctx, p.AssessorID, notifyReminder, "Pengingat penilaian 360°", body)
		if err := s.store.RecordReminder(ctx, p.AssignmentID, p.PeriodID, p.AssessorID); err != nil {
			slog.Warn("reminder log insert failed", "assignmentId", p.AssignmentID, "err", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Service) collapseResponses(rows []ResponseRow) ([]AspectRating, error) {
	byAspect := map[string]*AspectRating{}
	var order []string
	for _, r := range rows {
		entry, ok := byAspect[r.Aspect]
		if !ok {
			entry = &AspectRating{Aspect: r.Aspect, Rating: r.Rating}
			byAspect[r.Aspect] = entry
			order = append(order, r.Aspect)
		}
		if len(r.Comment) > 0 && entry.Comment == "" {
			comment, err := s.decrypt(r.Comment)
			if err != nil {
				return nil, fmt.Errorf("decrypt comment: %w", err)
			}
			entry.Comment = comment
		}
	}
	out := make([]AspectRating, 0, len(order))
	for _, name := range order {
		out = append(out, *byAspect[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return AspectOrder(out[i].Aspect) < AspectOrder(out[j].Aspect)
	})
	return out, nil
}

func (s *Service) encrypt(value string) ([]byte, error) {
	if s.crypto == nil {
		return []byte(value), nil
	}
	return s.crypto.EncryptString(value)
}

func (s *Service) decrypt(value []byte) (string, error) {
	if s.crypto == nil {
		return string(value), nil
	}
	return s.crypto.DecryptString(value)
}

func (s *Service) notify(ctx context.Context, userID, ntype, title, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Create(ctx, userID, ntype, title, body); err != nil {
		slog.Warn("assessment notification failed", "userId", userID, "type", ntype, "err", err)
	}
}
