package dberror

import (
	"net/http"

	"github.com/mugiliam/hatchreposrv/pkg/apperrors"
)

var (
	ErrDatabase      apperrors.Error = apperrors.New("db error").SetStatusCode(http.StatusInternalServerError)
	ErrAlreadyExists apperrors.Error = ErrDatabase.Msg("already exists").SetStatusCode(http.StatusConflict)
	ErrNotFound      apperrors.Error = ErrDatabase.Msg("not found").SetStatusCode(http.StatusNotFound)
	ErrInvalidInput  apperrors.Error = ErrDatabase.Msg("invalid input").SetStatusCode(http.StatusBadRequest)
	// ErrMissingParent is returned when a SpecRef write has no HeadRef
	// staged or committed for the same coordinates.
	ErrMissingParent apperrors.Error = ErrDatabase.Msg("spec ref has no parent head ref")
)
