package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"elearning/internal/auth"
	"elearning/internal/notify"
)

// Notifier queues outbound mail. Implementations must not block on delivery.
type Notifier interface {
	Notify(ctx context.Context, msg notify.Message)
}

// TokenIssuer mints signed session tokens.
type TokenIssuer interface {
	IssueAccess(id auth.Identity) (string, error)
	IssueRefresh(id auth.Identity) (string, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
