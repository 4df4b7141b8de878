package memory

import (
	"context"
	"errors"
	"strings"

	"pet-adoption-marketplace/internal/domain/users"
)

type UserRepo struct {
	*Collection[users.User]
}

func NewUserRepo() *UserRepo {
	return &UserRepo{Collection: NewCollection("users", Schema[users.User]{
		Key: func(u users.User) string { return u.UID },
		Fields: map[string]func(users.User) string{
			"role": func(u users.User) string { return string(u.Role) },
		},
	})}
}

func (r *UserRepo) Upsert(ctx context.Context, u users.User) error {
	if strings.TrimSpace(u.UID) == "" {
		return errors.New("user id required")
	}
	return r.Put(u)
}

func (r *UserRepo) GetByID(ctx context.Context, uid string) (users.User, error) {
	u, ok := r.Get(uid)
	if !ok {
		return users.User{}, ErrNotFound
	}
	return u, nil
}
