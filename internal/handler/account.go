package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/heliogen/genomevault/internal/service"
)

// AccountHandler exposes the right-to-be-forgotten endpoint. The route is
// mounted behind JWTAuth, so by the time Erase runs the bearer token has
// already been verified and the subject claim resolved.
type AccountHandler struct {
	Eraser *service.EraseService
}

func NewAccountHandler(e *service.EraseService) *AccountHandler {
	return &AccountHandler{Eraser: e}
}

// Erase deletes every off-platform record tied to the authenticated
// profile. The response never carries partial-success detail: once the
// primary delete lands, the operation is reported as fully successful
// regardless of secondary failures (those are logged by the saga).
func (h *AccountHandler) Erase(c echo.Context) error {
	profileID := profileIDFromContext(c)
	if profileID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	// Longer timeout than the single-query handlers: the saga touches five
	// tables and the broker.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Eraser.Erase(ctx, profileID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "erasure failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "all personal records have been removed",
	})
}
