package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	userDomain "github.com/JaniM/variant-go-server/internal/domain/user"
	errs "github.com/JaniM/variant-go-server/internal/errors"
)

type UserStorage interface {
	FindByToken(ctx context.Context, token string) (userDomain.User, error)
	Save(ctx context.Context, u userDomain.User) error
	UpdateNick(ctx context.Context, id, nick string) error
}

// UsecaseHandler implements token-bearer identity: clients hold an
// opaque token, the server mints it on first contact.
type UsecaseHandler struct {
	userStorage UserStorage
}

func NewUsecaseHandler(u UserStorage) *UsecaseHandler {
	return &UsecaseHandler{userStorage: u}
}

// Identify resolves a token into a user, creating one when the token
// is empty or unknown. A non-empty nick overwrites the stored one.
func (a *UsecaseHandler) Identify(ctx context.Context, token, nick string) (userDomain.User, error) {
	if token != "" {
		u, err := a.userStorage.FindByToken(ctx, token)
		switch {
		case err == nil:
			if nick != "" && nick != u.Nick {
				if err := a.userStorage.UpdateNick(ctx, u.ID, nick); err != nil {
					return userDomain.User{}, fmt.Errorf("update nick: %w", err)
				}
				u.Nick = nick
			}
			return u, nil
		case !errors.Is(err, errs.ErrUserNotFound):
			return userDomain.User{}, fmt.Errorf("find user: %w", err)
		}
	}

	u := userDomain.User{
		ID:        uuid.NewString(),
		AuthToken: uuid.NewString(),
		Nick:      nick,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.userStorage.Save(ctx, u); err != nil {
		return userDomain.User{}, fmt.Errorf("save user: %w", err)
	}
	return u, nil
}

// Authenticate resolves a known token and nothing else. Unknown or
// empty tokens are an auth failure, not an implicit signup.
func (a *UsecaseHandler) Authenticate(ctx context.Context, token string) (userDomain.User, error) {
	if token == "" {
		return userDomain.User{}, errs.ErrAuthRequired
	}
	u, err := a.userStorage.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return userDomain.User{}, errs.ErrAuthRequired
		}
		return userDomain.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
