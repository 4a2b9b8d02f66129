package user

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("user", "")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		QueryUsers(ctx context.Context) ([]User, error)
		CreateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(repo Repository, validate *validator.Validate, translator ut.Translator) *Service {
	return &Service{repo: repo, validate: validate, translator: translator}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string) error {
	users, err := svc.repo.QueryUsers(ctx)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	for _, usr := range users {
		if uname != "" && usr.Username == uname {
			return core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
		}
		if email != "" && usr.Email == email {
			return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, core.TranslateValidationErrors(err, svc.translator)
	}
	if err := svc.checkUniqueness(ctx, nu.Username, nu.Email); err != nil {
		return User{}, err
	}

	usr := User{
		ID:        uuid.New().String(),
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]User, error) {
	users, err := svc.repo.QueryUsers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	if filter.IsEmpty() {
		return users, nil
	}
	filtered := make([]User, 0, len(users))
	for _, usr := range users {
		if filter.Match(usr) {
			filtered = append(filtered, usr)
		}
	}
	return filtered, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	users, err := svc.repo.QueryUsers(ctx)
	if err != nil {
		return User{}, errors.Wrap(err, "querying users")
	}
	for _, usr := range users {
		if usr.ID == id {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}
