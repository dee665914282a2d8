package audit

import (
	"testing"
	"time"
)

func TestFilterWhereNumbersPlaceholders(t *testing.T) {
	since := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		filter   Filter
		want     string
		wantArgs int
	}{
		{name: "empty", filter: Filter{}, want: ""},
		{
			name:     "action and actor",
			filter:   Filter{Action: "quarter.delete", ActorUser: "u1"},
			want:     " WHERE action = $1 AND actor_user_id::text = $2",
			wantArgs: 2,
		},
		{
			name:     "entity with range",
			filter:   Filter{EntityType: "triwulan_winner", EntityID: "2025-Q3", Since: since, Until: since.AddDate(0, 3, 0)},
			want:     " WHERE entity_type = $1 AND entity_id = $2 AND created_at >= $3 AND created_at < $4",
			wantArgs: 4,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			where, args := tc.filter.where()
			if where != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, where)
			}
			if len(args) != tc.wantArgs {
				t.Fatalf("expected %d args, got %v", tc.wantArgs, args)
			}
		})
	}
}

func TestFilterWhereKeepsArgumentOrder(t *testing.T) {
	_, args := Filter{Action: "pin.create", EntityID: "p1"}.where()
	if args[0] != "pin.create" || args[1] != "p1" {
		t.Fatalf("unexpected args %v", args)
	}
}
