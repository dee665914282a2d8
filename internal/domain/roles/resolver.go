package roles

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"feedbackportal/internal/domain/auth"
)

// Resolver unions the user_roles table with the configured id overrides.
// Nothing is cached; every call reads the table again.
type Resolver struct {
	store               StoreAPI
	adminOverrides      []string
	supervisorOverrides []string
}

func NewResolver(store StoreAPI, adminOverrides, supervisorOverrides []string) *Resolver {
	return &Resolver{
		store:               store,
		adminOverrides:      adminOverrides,
		supervisorOverrides: supervisorOverrides,
	}
}

func (r *Resolver) Resolve(ctx context.Context) (RoleSets, error) {
	assignments, err := r.store.ListRoles(ctx)
	if err != nil {
		return RoleSets{}, fmt.Errorf("resolve roles: %w", err)
	}

	admins := newIDSet(r.adminOverrides)
	supervisors := newIDSet(r.supervisorOverrides)
	for _, a := range assignments {
		switch a.Role {
		case auth.RoleAdmin:
			admins.add(a.UserID)
		case auth.RoleSupervisor:
			supervisors.add(a.UserID)
		}
	}
	return RoleSets{AdminIDs: admins.sorted(), SupervisorIDs: supervisors.sorted()}, nil
}

func (r *Resolver) IsAdmin(ctx context.Context, userID string) (bool, error) {
	role, err := r.RoleOf(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == auth.RoleAdmin, nil
}

func (r *Resolver) IsSupervisor(ctx context.Context, userID string) (bool, error) {
	role, err := r.RoleOf(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == auth.RoleSupervisor, nil
}

func (r *Resolver) RoleOf(ctx context.Context, userID string) (string, error) {
	if contains(r.adminOverrides, userID) {
		return auth.RoleAdmin, nil
	}
	role, err := r.store.RoleForUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve role for %s: %w", userID, err)
	}
	if role == auth.RoleAdmin {
		return role, nil
	}
	if contains(r.supervisorOverrides, userID) {
		return auth.RoleSupervisor, nil
	}
	if !auth.ValidRole(role) {
		return auth.RoleUser, nil
	}
	return role, nil
}

// HasPermission backs the RequirePermission middleware.
func (r *Resolver) HasPermission(ctx context.Context, userID, permission string) (bool, error) {
	role, err := r.RoleOf(ctx, userID)
	if err != nil {
		return false, err
	}
	return auth.RoleHasPermission(role, permission), nil
}

func (r *Resolver) SetRole(ctx context.Context, userID, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if !auth.ValidRole(role) {
		return ErrInvalidRole
	}
	exists, err := r.store.ProfileExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}
	return r.store.SetRole(ctx, userID, role)
}

type idSet struct {
	seen map[string]bool
}

func newIDSet(initial []string) *idSet {
	s := &idSet{seen: map[string]bool{}}
	for _, id := range initial {
		s.add(id)
	}
	return s
}

func (s *idSet) add(id string) {
	id = strings.TrimSpace(id)
	if id != "" {
		s.seen[id] = true
	}
}

func (s *idSet) sorted() []string {
	out := make([]string, 0, len(s.seen))
	for id := range s.seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
