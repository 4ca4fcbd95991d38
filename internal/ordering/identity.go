package ordering

import (
	"context"
	"fmt"

	"github.com/Leganyst/ordering-platform/internal/model"
)

// Identity содержит проверенные данные из bearer-токена.
type Identity struct {
	Username string
	Role     string
}

func (i Identity) IsAdmin() bool { return i.Role == AdminRole }

// Caller is the stored user an operation runs as.
type Caller struct {
	ID       int64
	Username string
	Role     string
}

func (c *Caller) IsAdmin() bool { return c.Role == AdminRole }

type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// ResolveCaller:
//   - проверяет, что в токене есть имя пользователя;
//   - вытаскивает пользователя из хранилища;
//   - сверяет роль из токена с текущей ролью пользователя;
//   - возвращает Caller с id для записи заказа.
func ResolveCaller(ctx context.Context, store UserStore, id Identity) (*Caller, error) {
	if id.Username == "" {
		return nil, Errorf(KindUnauthorized, "missing username in credentials")
	}

	u, err := store.FindByUsername(ctx, id.Username)
	if err != nil {
		if isNotFound(err) {
			return nil, Errorf(KindUnauthorized, "user %q does not exist", id.Username)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if u.Role != id.Role {
		return nil, Errorf(KindUnauthorized, "role of user %q has changed, log in again", id.Username)
	}

	return &Caller{ID: u.ID, Username: u.Username, Role: u.Role}, nil
}
