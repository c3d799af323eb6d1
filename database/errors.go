package database

import (
	"errors"

	"github.com/rpupo63/reel-marketplace-backend/errs"
	"gorm.io/gorm"
)

// translate maps gorm failures onto the errs taxonomy
func translate(operation, entity string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errs.ErrStale):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.NewNotFound(entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.NewAlreadyExists(entity)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return errs.NewInvalidFieldError(entity, "references a missing record")
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return errs.NewInvalidFieldError(entity, "violates a table constraint")
	}
	return errs.NewDatabaseError(operation, entity, err)
}
