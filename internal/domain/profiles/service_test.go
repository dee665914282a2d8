package profiles

import (
	"context"
	"errors"
	"testing"

	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/domain/roles"
)

type fakeStore struct {
	profiles map[string]Profile
	hash     string
	fields   map[string]any
	filter   Filter
}

func (f *fakeStore) Get(_ context.Context, userID string) (Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) List(_ context.Context, filter Filter) ([]Profile, int, error) {
	f.filter = filter
	var out []Profile
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (f *fakeStore) Departments(context.Context) ([]string, error) {
	return []string{"Keuangan", "Umum"}, nil
}

func (f *fakeStore) Create(_ context.Context, in CreateInput, hash string) (Profile, error) {
	for _, p := range f.profiles {
		if p.Email == in.Email {
			return Profile{}, ErrEmailTaken
		}
	}
	f.hash = hash
	p := Profile{ID: "new", Email: in.Email, Username: in.Username, FullName: in.FullName}
	f.profiles[p.ID] = p
	return p, nil
}

func (f *fakeStore) Update(_ context.Context, userID string, fields map[string]any) (Profile, error) {
	f.fields = fields
	p, ok := f.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	if v, ok := fields["full_name"].(string); ok {
		p.FullName = v
	}
	f.profiles[userID] = p
	return p, nil
}

func (f *fakeStore) Delete(_ context.Context, userID string) (bool, error) {
	_, ok := f.profiles[userID]
	delete(f.profiles, userID)
	return ok, nil
}

type fakeResolver struct {
	sets roles.RoleSets
	set  map[string]string
}

func (r *fakeResolver) Resolve(context.Context) (roles.RoleSets, error) { return r.sets, nil }

func (r *fakeResolver) RoleOf(_ context.Context, userID string) (string, error) {
	if role, ok := r.set[userID]; ok {
		return role, nil
	}
	return r.sets.RoleOf(userID), nil
}

func (r *fakeResolver) SetRole(_ context.Context, userID, role string) error {
	if !auth.ValidRole(role) {
		return roles.ErrInvalidRole
	}
	r.set[userID] = role
	return nil
}

func newTestService() (*Service, *fakeStore, *fakeResolver) {
	store := &fakeStore{profiles: map[string]Profile{
		"u1":  {ID: "u1", Email: "ani@example.com", FullName: "Ani"},
		"sup": {ID: "sup", Email: "budi@example.com", FullName: "Budi"},
	}}
	resolver := &fakeResolver{sets: roles.RoleSets{SupervisorIDs: []string{"sup"}}, set: map[string]string{}}
	return NewService(store, resolver), store, resolver
}

func TestMeAnnotatesRole(t *testing.T) {
	svc, _, _ := newTestService()
	p, err := svc.Me(context.Background(), "sup")
	if err != nil || p.Role != auth.RoleSupervisor {
		t.Fatalf("unexpected profile %+v %v", p, err)
	}
	if _, err := svc.Me(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateMeOnlyTouchesOwnedFields(t *testing.T) {
	svc, store, _ := newTestService()
	name := "  Ani Lestari "
	public := true
	p, err := svc.UpdateMe(context.Background(), "u1", SelfUpdate{FullName: &name, AllowPublicView: &public})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.FullName != "Ani Lestari" {
		t.Fatalf("expected trimmed name, got %q", p.FullName)
	}
	if len(store.fields) != 2 || store.fields["allow_public_view"] != true {
		t.Fatalf("unexpected fields %v", store.fields)
	}
	if _, err := svc.UpdateMe(context.Background(), "u1", SelfUpdate{}); !errors.Is(err, ErrEmptyUpdate) {
		t.Fatalf("expected empty update, got %v", err)
	}
}

func TestDirectoryClampsPaging(t *testing.T) {
	svc, store, _ := newTestService()
	list, total, err := svc.Directory(context.Background(), Filter{Limit: 1000, Offset: -3})
	if err != nil {
		t.Fatalf("directory: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("unexpected directory %v %d", list, total)
	}
	if store.filter.Limit != 50 || store.filter.Offset != 0 {
		t.Fatalf("expected clamped paging, got %+v", store.filter)
	}
	for _, p := range list {
		if p.ID == "sup" && p.Role != auth.RoleSupervisor {
			t.Fatalf("expected supervisor role, got %+v", p)
		}
	}
}

func TestCreateHashesPasswordAndAssignsRole(t *testing.T) {
	svc, store, resolver := newTestService()
	p, err := svc.Create(context.Background(), CreateInput{
		Email:    " Citra@Example.com ",
		Password: "Rahasia123",
		FullName: "Citra",
		Role:     auth.RoleSupervisor,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Email != "citra@example.com" || p.Username != "citra" || p.Role != auth.RoleSupervisor {
		t.Fatalf("unexpected profile %+v", p)
	}
	if store.hash == "" || store.hash == "Rahasia123" || auth.CheckPassword(store.hash, "Rahasia123") != nil {
		t.Fatal("expected bcrypt hash to be stored")
	}
	if resolver.set["new"] != auth.RoleSupervisor {
		t.Fatalf("expected role assignment, got %v", resolver.set)
	}

	if _, err := svc.Create(context.Background(), CreateInput{Email: "x@example.com", Password: "weak", FullName: "X"}); !errors.Is(err, auth.ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{Email: "ani@example.com", Password: "Rahasia123", FullName: "A"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
}

func TestDeleteRejectsSelf(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.Delete(context.Background(), "u1", "u1"); !errors.Is(err, ErrSelfDelete) {
		t.Fatalf("expected self delete error, got %v", err)
	}
	if err := svc.Delete(context.Background(), "sup", "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(context.Background(), "sup", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetRole(t *testing.T) {
	svc, _, _ := newTestService()
	p, err := svc.SetRole(context.Background(), "u1", auth.RoleAdmin)
	if err != nil || p.Role != auth.RoleAdmin {
		t.Fatalf("unexpected %+v %v", p, err)
	}
	if _, err := svc.SetRole(context.Background(), "u1", "owner"); !errors.Is(err, roles.ErrInvalidRole) {
		t.Fatalf("expected invalid role, got %v", err)
	}
}
