package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ruralmed/clinicstock/internal/service/auth"
	"github.com/ruralmed/clinicstock/internal/service/inventory"
	"github.com/ruralmed/clinicstock/internal/service/subscription"
	syncsvc "github.com/ruralmed/clinicstock/internal/service/sync"
)

// respondError maps service errors onto HTTP statuses. Unknown errors become
// an opaque 500 so internals never leak to the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, syncsvc.ErrSyncInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrItemNotFound),
		errors.Is(err, auth.ErrContactNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrInvalidItem),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, auth.ErrPINTooShort),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrInvalidOtp),
		errors.Is(err, subscription.ErrInvalidRenewalCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
