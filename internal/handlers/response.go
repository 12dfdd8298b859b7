package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storyos/storyos-backend/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondServiceError maps service-layer error kinds onto HTTP statuses.
func RespondServiceError(c *gin.Context, err error) {
	var (
		invalidTransition *apperr.InvalidTransitionError
		blocked           *apperr.BlockedByDraftUpdateError
		bindingRejected   *apperr.BindingRejectedError
		mismatch          *apperr.StructureMismatchError
		validation        *apperr.ValidationFailedError
	)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.As(err, &invalidTransition):
		RespondError(c, http.StatusConflict, "invalid_transition", err)
	case errors.As(err, &blocked):
		RespondError(c, http.StatusConflict, "blocked_by_draft_update", err)
	case errors.As(err, &bindingRejected):
		RespondError(c, http.StatusUnprocessableEntity, "binding_rejected", err)
	case errors.As(err, &mismatch):
		RespondError(c, http.StatusUnprocessableEntity, "structure_mismatch", err)
	case errors.As(err, &validation):
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
