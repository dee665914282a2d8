package profiles

import (
	"context"
	"fmt"
	"strings"

	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/domain/roles"
)

type RoleResolver interface {
	Resolve(ctx context.Context) (roles.RoleSets, error)
	RoleOf(ctx context.Context, userID string) (string, error)
	SetRole(ctx context.Context, userID, role string) error
}

type Service struct {
	store StoreAPI
	roles RoleResolver
}

func NewService(store StoreAPI, resolver RoleResolver) *Service {
	return &Service{store: store, roles: resolver}
}

func (s *Service) Me(ctx context.Context, userID string) (Profile, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	role, err := s.roles.RoleOf(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	p.Role = role
	return p, nil
}

// UpdateMe changes the fields a user owns. Position and department are admin-managed.
func (s *Service) UpdateMe(ctx context.Context, userID string, in SelfUpdate) (Profile, error) {
	fields := map[string]any{}
	if in.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.Username != nil {
		fields["username"] = strings.TrimSpace(*in.Username)
	}
	if in.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}
	if in.AllowPublicView != nil {
		fields["allow_public_view"] = *in.AllowPublicView
	}
	if len(fields) == 0 {
		return Profile{}, ErrEmptyUpdate
	}
	if _, err := s.store.Update(ctx, userID, fields); err != nil {
		return Profile{}, err
	}
	return s.Me(ctx, userID)
}

// Directory lists profiles annotated with their resolved role.
func (s *Service) Directory(ctx context.Context, filter Filter) ([]Profile, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	list, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	sets, err := s.roles.Resolve(ctx)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i].Role = sets.RoleOf(list[i].ID)
	}
	return list, total, nil
}

func (s *Service) Departments(ctx context.Context) ([]string, error) {
	return s.store.Departments(ctx)
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	return s.Me(ctx, userID)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Profile, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Username == "" {
		in.Username = strings.SplitN(in.Email, "@", 2)[0]
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return Profile{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Profile{}, fmt.Errorf("hash password: %w", err)
	}
	p, err := s.store.Create(ctx, in, hash)
	if err != nil {
		return Profile{}, err
	}
	role := in.Role
	if role == "" {
		role = auth.RoleUser
	}
	if role != auth.RoleUser {
		if err := s.roles.SetRole(ctx, p.ID, role); err != nil {
			return Profile{}, err
		}
	}
	p.Role = role
	return p, nil
}

func (s *Service) Update(ctx context.Context, userID string, in AdminUpdate) (Profile, error) {
	fields := map[string]any{}
	if in.Email != nil {
		fields["email"] = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.Username != nil {
		fields["username"] = strings.TrimSpace(*in.Username)
	}
	if in.Position != nil {
		fields["position"] = strings.TrimSpace(*in.Position)
	}
	if in.Department != nil {
		fields["department"] = strings.TrimSpace(*in.Department)
	}
	if len(fields) == 0 {
		return Profile{}, ErrEmptyUpdate
	}
	if _, err := s.store.Update(ctx, userID, fields); err != nil {
		return Profile{}, err
	}
	return s.Me(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return ErrSelfDelete
	}
	found, err := s.store.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *Service) SetRole(ctx context.Context, userID, role string) (Profile, error) {
	if err := s.roles.SetRole(ctx, userID, role); err != nil {
		return Profile{}, err
	}
	return s.Me(ctx, userID)
}
