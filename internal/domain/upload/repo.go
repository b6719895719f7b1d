package upload

import "context"

type Repository interface {
	Create(ctx context.Context, u *Upload) error
	Get(ctx context.Context, id string) (*Upload, error)
	ListByUser(ctx context.Context, userID string, kind Kind, limit, offset int) ([]*Upload, int, error)
	Delete(ctx context.Context, id string) error

	AddReading(ctx context.Context, r *Reading) error
	// LatestReadings returns the newest reading of each upload in ids that
	// has one.
	LatestReadings(ctx context.Context, ids []string) (map[string]*Reading, error)
}
