package profiles

import "context"

type StoreAPI interface {
	Get(ctx context.Context, userID string) (Profile, error)
	List(ctx context.Context, filter Filter) ([]Profile, int, error)
	Departments(ctx context.Context) ([]string, error)
	Create(ctx context.Context, in CreateInput, passwordHash string) (Profile, error)
	Update(ctx context.Context, userID string, fields map[string]any) (Profile, error)
	Delete(ctx context.Context, userID string) (bool, error)
}
