package postgres

import (
	"context"
	"errors"
	"net"

	"gorm.io/gorm"

	"github.com/4DevsO/qtut-b4a/internal/errs"
)

// translateError turns a driver error into a coded store error.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.Wrap(errs.CodeDuplicateValue, err)
	case errors.Is(err, gorm.ErrInvalidData),
		errors.Is(err, gorm.ErrInvalidField),
		errors.Is(err, gorm.ErrInvalidValue),
		errors.Is(err, gorm.ErrUnsupportedRelation):
		return errs.Wrap(errs.CodeInvalidQuery, err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &netErr):
		return errs.Wrap(errs.CodeConnectionFailed, err)
	default:
		return errs.Wrap(errs.CodeInternal, err)
	}
}
