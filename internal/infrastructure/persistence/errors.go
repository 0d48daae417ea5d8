package persistence

import (
	"errors"

	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"gorm.io/gorm"
)

// translate maps GORM errors to domain errors. Missing rows become
// NOT_FOUND, unique violations become CONFLICT, and anything else is an
// internal error carrying the cause.
func translate(err error, entity string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewNotFoundError(entity, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		de := shared.NewConflictError(entity + " already exists")
		de.Err = err
		return de
	}
	if _, ok := shared.AsDomainError(err); ok {
		return err
	}
	return shared.NewInternalError("database operation failed", err)
}
