package users

import "context"

type Repository interface {
	Upsert(ctx context.Context, u User) error
	GetByID(ctx context.Context, uid string) (User, error)
}
