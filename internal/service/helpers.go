package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Leganyst/ordering-platform/internal/ordering"
	"github.com/Leganyst/ordering-platform/internal/repository"
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// conflictOr переводит нарушения уникальности, внешних ключей и ErrInUse в Conflict.
func conflictOr(err error, msg string) error {
	if errors.Is(err, repository.ErrInUse) ||
		errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ordering.Errorf(ordering.KindConflict, "%s", msg)
	}
	return err
}

// dedupeBy оставляет первое вхождение каждого ключа, сохраняя порядок.
func dedupeBy[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
