package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/service"
	"github.com/gin-gonic/gin"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrMissingPrepWeight),
		errors.Is(err, service.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrNothingToUndo),
		errors.Is(err, service.ErrStaleMaterialReference):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateName),
		errors.Is(err, service.ErrKitInUse),
		errors.Is(err, service.ErrReferencedElsewhere),
		errors.Is(err, service.ErrConcurrentModification),
		errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) fail(c *gin.Context, err error) {
	st := statusOf(err)
	msg := err.Error()
	switch st {
	case http.StatusInternalServerError:
		h.log.Error("request failed",
			"path", c.FullPath(), "request_id", c.GetString(ctxRequestID), "err", err)
		msg = "internal error"
	case http.StatusUnauthorized:
		msg = "invalid or missing credentials"
	}
	body := gin.H{"error": msg}

	var ie *service.InsufficientStockError
	if errors.As(err, &ie) {
		body["material_id"] = ie.MaterialID
		body["required"] = ie.Required.String()
		body["available"] = ie.Available.String()
	}
	var ce *service.ConcurrentModificationError
	if errors.As(err, &ce) {
		body["material_id"] = ce.MaterialID
		body["logged"] = ce.Logged.String()
		body["current"] = ce.Current.String()
	}
	c.AbortWithStatusJSON(st, body)
}

func badRequest(field string, err error) error {
	return &service.ValidationError{Field: field, Msg: err.Error()}
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &service.ValidationError{Field: "id", Msg: "must be a positive integer"}
	}
	return id, nil
}
