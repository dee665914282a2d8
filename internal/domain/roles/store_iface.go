package roles

import "context"

type StoreAPI interface {
	ListRoles(ctx context.Context) ([]Assignment, error)
	RoleForUser(ctx context.Context, userID string) (string, error)
	SetRole(ctx context.Context, userID, role string) error
	ProfileExists(ctx context.Context, userID string) (bool, error)
}
