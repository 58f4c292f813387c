package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/scsaalabs/memberhub/internal/account/domain"
	announcementdomain "github.com/scsaalabs/memberhub/internal/announcement/domain"
	eventdomain "github.com/scsaalabs/memberhub/internal/event/domain"
	membershipdomain "github.com/scsaalabs/memberhub/internal/membership/domain"
	"github.com/scsaalabs/memberhub/internal/receipt"
)

type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.code }

var (
	ErrInvalidRequest = &apiError{http.StatusBadRequest, "invalid_request", "the request body or parameters are invalid"}
	ErrUnauthorized   = &apiError{http.StatusUnauthorized, "unauthorized", "a valid account identity is required"}
	ErrForbidden      = &apiError{http.StatusForbidden, "forbidden", "this operation requires an admin account"}
	ErrNotFound       = &apiError{http.StatusNotFound, "not_found", "the requested resource does not exist"}
	ErrConflict       = &apiError{http.StatusConflict, "conflict", "the resource conflicts with an existing one"}
	ErrInternal       = &apiError{http.StatusInternalServerError, "internal_error", "an unexpected error occurred"}
)

// AbortWithError maps domain errors to HTTP responses. Unknown errors become
// an opaque 500; the details stay in the logs.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		apiErr = mapDomainError(err)
	}
	c.AbortWithStatusJSON(apiErr.status, gin.H{
		"error": gin.H{
			"code":    apiErr.code,
			"message": apiErr.message,
		},
	})
}

func mapDomainError(err error) *apiError {
	switch {
	case errors.Is(err, accountdomain.ErrAccountNotFound),
		errors.Is(err, membershipdomain.ErrMembershipNotFound),
		errors.Is(err, eventdomain.ErrEventNotFound),
		errors.Is(err, announcementdomain.ErrAnnouncementNotFound),
		errors.Is(err, receipt.ErrPaymentNotFound):
		return ErrNotFound
	case errors.Is(err, eventdomain.ErrSlugTaken),
		errors.Is(err, announcementdomain.ErrSlugTaken):
		return ErrConflict
	case errors.Is(err, eventdomain.ErrInvalidTitle),
		errors.Is(err, eventdomain.ErrInvalidStart),
		errors.Is(err, announcementdomain.ErrInvalidTitle),
		errors.Is(err, membershipdomain.ErrInvalidAccount):
		return ErrInvalidRequest
	default:
		return ErrInternal
	}
}
