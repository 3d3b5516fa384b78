package records

import (
	"errors"

	"food-dashboard/internal/database"

	"github.com/gofiber/fiber/v2"
)

// HTTPError maps a mutation error to the status a handler should return.
// Errors without a client-facing meaning pass through unchanged.
func HTTPError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrUnknownItem), errors.Is(err, database.ErrUnknownTable):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrRowNotFound):
		return fiber.NewError(fiber.StatusNotFound, "row not found")
	case errors.Is(err, database.ErrStaleRevision):
		return fiber.NewError(fiber.StatusConflict, "the table changed since this row was shown, pick it again")
	}
	return err
}
