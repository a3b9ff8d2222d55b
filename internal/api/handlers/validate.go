package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"charm-cutvar/internal/api/models"
)

// ValidateHandler checks configs without running the grid.
type ValidateHandler struct{}

func NewValidateHandler() *ValidateHandler { return &ValidateHandler{} }

// Validate handles POST /api/v1/validate. Invalid configs are a 200 with
// valid=false: the request itself succeeded.
func (h *ValidateHandler) Validate(c *gin.Context) {
	var req models.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	cfg, err := loadConfig(req.ConfigPath, req.ConfigYAML)
	if err != nil {
		c.JSON(http.StatusOK, models.ValidateResponse{Valid: false, Error: err.Error()})
		return
	}
	plan, err := cfg.Plan()
	if err != nil {
		c.JSON(http.StatusOK, models.ValidateResponse{Valid: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.ValidateResponse{
		Valid:         true,
		PtBins:        len(plan.PtBins),
		WorkingPoints: len(plan.NonPromptCuts),
	})
}
