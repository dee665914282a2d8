package roles

import (
	"context"
	"errors"
	"testing"

	"feedbackportal/internal/domain/auth"
)

type fakeStore struct {
	assignments []Assignment
	err         error
	profiles    map[string]bool
	set         map[string]string
}

func (f *fakeStore) ListRoles(context.Context) ([]Assignment, error) {
	return f.assignments, f.err
}

func (f *fakeStore) RoleForUser(_ context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for _, a := range f.assignments {
		if a.UserID == userID {
			return a.Role, nil
		}
	}
	return auth.RoleUser, nil
}

func (f *fakeStore) SetRole(_ context.Context, userID, role string) error {
	if f.set == nil {
		f.set = map[string]string{}
	}
	f.set[userID] = role
	return nil
}

func (f *fakeStore) ProfileExists(_ context.Context, userID string) (bool, error) {
	return f.profiles[userID], nil
}

func TestResolveUnionsTableAndOverrides(t *testing.T) {
	store := &fakeStore{assignments: []Assignment{
		{UserID: "a1", Role: auth.RoleAdmin},
		{UserID: "s1", Role: auth.RoleSupervisor},
		{UserID: "s2", Role: auth.RoleSupervisor},
	}}
	resolver := NewResolver(store, []string{"a2", "a1"}, []string{"s3", " s1 "})

	sets, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets.AdminIDs) != 2 || !sets.IsAdmin("a1") || !sets.IsAdmin("a2") {
		t.Fatalf("unexpected admins: %+v", sets.AdminIDs)
	}
	if len(sets.SupervisorIDs) != 3 || !sets.IsSupervisor("s3") {
		t.Fatalf("unexpected supervisors: %+v", sets.SupervisorIDs)
	}
	if sets.RoleOf("a1") != auth.RoleAdmin || sets.RoleOf("s2") != auth.RoleSupervisor || sets.RoleOf("x") != auth.RoleUser {
		t.Fatal("unexpected RoleOf result")
	}
	if !sets.SupervisorSet()["s1"] {
		t.Fatal("expected s1 in supervisor set")
	}
}

func TestResolvePropagatesStoreError(t *testing.T) {
	resolver := NewResolver(&fakeStore{err: errors.New("db down")}, []string{"a1"}, nil)
	if _, err := resolver.Resolve(context.Background()); err == nil {
		t.Fatal("expected error to propagate instead of empty sets")
	}
	if _, err := resolver.HasPermission(context.Background(), "u1", auth.PermPinsGive); err == nil {
		t.Fatal("expected permission check to fail with store error")
	}
}

func TestRoleOfHonoursOverrides(t *testing.T) {
	store := &fakeStore{assignments: []Assignment{{UserID: "s1", Role: auth.RoleSupervisor}}}
	resolver := NewResolver(store, []string{"s1"}, []string{"u2"})

	role, err := resolver.RoleOf(context.Background(), "s1")
	if err != nil || role != auth.RoleAdmin {
		t.Fatalf("expected admin override, got %q %v", role, err)
	}
	role, _ = resolver.RoleOf(context.Background(), "u2")
	if role != auth.RoleSupervisor {
		t.Fatalf("expected supervisor override, got %q", role)
	}
	ok, _ := resolver.HasPermission(context.Background(), "u2", auth.PermTeamRate)
	if !ok {
		t.Fatal("expected supervisor to rate team")
	}
}

func TestSetRoleValidates(t *testing.T) {
	store := &fakeStore{profiles: map[string]bool{"u1": true}}
	resolver := NewResolver(store, nil, nil)

	if err := resolver.SetRole(context.Background(), "u1", "owner"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected invalid role, got %v", err)
	}
	if err := resolver.SetRole(context.Background(), "nobody", auth.RoleAdmin); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
	if err := resolver.SetRole(context.Background(), "u1", " Supervisor "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.set["u1"] != auth.RoleSupervisor {
		t.Fatalf("expected supervisor stored, got %+v", store.set)
	}
}
