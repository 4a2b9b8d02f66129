package school

import (
	"context"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

type userRepository struct {
	store Store
}

// NewUserRepository serves the users of store to user.Service.
func NewUserRepository(store Store) user.Repository {
	return userRepository{store: store}
}

func (repo userRepository) QueryUsers(ctx context.Context) ([]user.User, error) {
	var users []user.User
	err := repo.store.View(ctx, func(r Reader) (err error) {
		users, err = r.ListUsers(ctx)
		return core.StoreError(err, "listing users")
	})
	return users, err
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := repo.store.Update(ctx, func(tx Tx) error {
		return core.StoreError(tx.AppendUser(ctx, usr), "appending user")
	})
	if err != nil {
		return user.User{}, err
	}
	return usr.Clone(), nil
}
