package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors recognised by RespondError. Domain packages either wrap
// these or declare their own sentinels and map them in their handlers
// before falling back here.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrConstraint   = errors.New("constraint violation")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// RespondError maps an error to the uniform failure body. Unrecognised
// errors become a generic 500 so internals never leak to clients.
func RespondError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: "failed on " + fe.Tag()})
		}
		Fail(w, http.StatusBadRequest, "validation failed", fields...)
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrValidation):
		Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConstraint):
		Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrForbidden):
		Fail(w, http.StatusForbidden, err.Error())
	default:
		Fail(w, http.StatusInternalServerError, "internal error")
	}
}

// WrapConstraint converts PostgreSQL unique and foreign key violations into
// ErrConstraint so callers surface them as 400s instead of 500s.
func WrapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			return errors.Join(ErrConstraint, err)
		}
	}
	return err
}
