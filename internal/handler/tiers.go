package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/heliogen/genomevault/internal/model"
)

// tierInfo describes one subscription tier in the public catalog.
type tierInfo struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	MaxRecords  int    `json:"max_records"`
	Description string `json:"description"`
}

// tierCatalog is static; the route sits behind the Redis response cache so
// repeated polls from onboarding screens never reach the handler.
var tierCatalog = []tierInfo{
	{Code: model.TierF1, Name: "Foundation", MaxRecords: 10,
		Description: "Personal genome storage with basic sharing."},
	{Code: model.TierF2, Name: "Family", MaxRecords: 100,
		Description: "Multi-record storage with clinician sharing."},
	{Code: model.TierF3, Name: "Research", MaxRecords: 1000,
		Description: "Bulk storage with cohort-level access grants."},
}

// Tiers returns the subscription tier catalog.
func Tiers(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"tiers": tierCatalog})
}
