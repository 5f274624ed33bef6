package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spotmarket-backend/internal/booking"
	"spotmarket-backend/internal/store"
)

// abortWithError maps a domain error onto the wire: the status code and
// the code field let clients tell a lost race (re-search) from a missing
// entity or an invalid transition (fallback UX).
func abortWithError(c *gin.Context, err error) {
	var (
		validationErr *booking.ValidationError
		stateErr      *booking.StateError
		paymentErr    *booking.PaymentDueError
		conflictErr   *store.ConflictError
		notFoundErr   *store.NotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_error"})
	case errors.As(err, &notFoundErr):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	case errors.As(err, &conflictErr):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "conflict"})
	case errors.As(err, &stateErr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": "invalid_state"})
	case errors.As(err, &paymentErr):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "payment_due"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": "internal_error"})
	}
}

func abortBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": "validation_error"})
}
