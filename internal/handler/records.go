package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/heliogen/genomevault/internal/service"
)

// RecordHandler lists and registers off-platform pointers to clinical
// assets on the external ledger. Decryption of the assets themselves is a
// client concern gated by the vault controller; the server only ever serves
// the pointers.
type RecordHandler struct {
	Records service.RecordStore
}

func NewRecordHandler(r service.RecordStore) *RecordHandler {
	return &RecordHandler{Records: r}
}

type createRecordReq struct {
	Title     string `json:"title"`
	LedgerRef string `json:"ledger_ref"`
	FileKey   string `json:"file_key"`
}

type recordResp struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	LedgerRef string    `json:"ledger_ref"`
	FileKey   string    `json:"file_key"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the authenticated profile's ledger pointers, newest first.
func (h *RecordHandler) List(c echo.Context) error {
	profileID := profileIDFromContext(c)
	if profileID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	recs, err := h.Records.ListByOwner(ctx, profileID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list records failed"})
	}

	out := make([]recordResp, 0, len(recs))
	for _, r := range recs {
		out = append(out, recordResp{
			ID: r.ID, Title: r.Title, LedgerRef: r.LedgerRef,
			FileKey: r.FileKey, CreatedAt: r.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"records": out})
}

// Create registers a new pointer row after the client has anchored the
// encrypted asset on the ledger.
func (h *RecordHandler) Create(c echo.Context) error {
	profileID := profileIDFromContext(c)
	if profileID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createRecordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.LedgerRef) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title/ledger_ref required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Records.Create(ctx, profileID, strings.TrimSpace(req.Title),
		strings.TrimSpace(req.LedgerRef), strings.TrimSpace(req.FileKey))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create record failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}
