package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"charm-cutvar/internal/api/models"
	"charm-cutvar/internal/model"
)

// FunctionsHandler exposes the closed set of fit function kinds, so clients
// can validate config choices without a round trip through a failing run.
type FunctionsHandler struct{}

func NewFunctionsHandler() *FunctionsHandler { return &FunctionsHandler{} }

// List handles GET /api/v1/functions.
func (h *FunctionsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, models.FunctionsResponse{
		Signal: []string{
			string(model.SignalGaussian),
			string(model.SignalDoubleGaussian),
			string(model.SignalCrystalBall),
		},
		Background: []string{"expo", "pol0", "pol1", "pol2", "pol3"},
	})
}
