package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/medsupply/internal/repository"
	"github.com/tuanvumaihuynh/medsupply/pkg/validator"
	"github.com/tuanvumaihuynh/medsupply/pkg/zerror"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time {
	return time.Now()
}

// stamp returns now in UTC at the precision Postgres stores.
func stamp(clock Clock) time.Time {
	return clock().UTC().Truncate(time.Microsecond)
}

// nextStamp returns a timestamp strictly after prev.
func nextStamp(clock Clock, prev time.Time) time.Time {
	now := stamp(clock)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func newID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate uuid v7: %w", err)
	}
	return id, nil
}

func validate(v validator.Validator, params any) error {
	if err := v.Validate(params); err != nil {
		return fmt.Errorf("validate params: %w", err)
	}
	return nil
}

// ensureUnique fails with dupErr when a record other than selfID already holds
// the key. The unique index stays the source of truth; this only gives an
// earlier and friendlier error.
func ensureUnique[T any](
	ctx context.Context,
	find func(context.Context, string) (T, error),
	key string,
	selfID uuid.UUID,
	idOf func(T) uuid.UUID,
	dupErr zerror.ZError,
) error {
	existing, err := find(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find by unique key: %w", err)
	}
	if idOf(existing) != selfID {
		return dupErr
	}
	return nil
}

// mapWriteErr translates repository write errors into the entity's domain errors.
func mapWriteErr(err error, notFound, duplicate zerror.ZError) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateKey):
		return duplicate.WrapParent(err)
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	default:
		return err
	}
}

func mapFindErr(err error, notFound zerror.ZError) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return err
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func lowerPtr(s *string) *string {
	if s == nil {
		return nil
	}
	l := strings.ToLower(strings.TrimSpace(*s))
	return &l
}

// nullable turns a supplied empty string into a cleared value.
func nullable(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// applyOptional sets dst for an optional nullable field: nil leaves it
// untouched and an empty string clears it.
func applyOptional(dst **string, src *string) {
	if src == nil {
		return
	}
	*dst = nullable(src)
}

func apply[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
