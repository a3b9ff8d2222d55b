package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"charm-cutvar/internal/analysis"
	"charm-cutvar/internal/api/models"
	"charm-cutvar/internal/config"
	"charm-cutvar/internal/grid"
	"charm-cutvar/internal/hist"
	"charm-cutvar/internal/model"
	"charm-cutvar/internal/output"
)

// ExtractHandler runs the extraction grid on request.
type ExtractHandler struct {
	cache *hist.SourceCache
}

func NewExtractHandler() *ExtractHandler {
	return &ExtractHandler{cache: hist.NewSourceCache()}
}

// Run handles POST /api/v1/extract.
func (h *ExtractHandler) Run(c *gin.Context) {
	var req models.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	cfg, err := loadConfig(req.ConfigPath, req.ConfigYAML)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_CONFIG", Message: err.Error()},
		})
		return
	}
	if req.Workers > 0 {
		cfg.Workers = req.Workers
	}

	plan, err := cfg.Plan()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_CONFIG", Message: err.Error()},
		})
		return
	}

	inputs, err := grid.LoadInputs(cfg, h.cache)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INPUT_LOAD_ERROR", Message: err.Error()},
		})
		return
	}

	start := time.Now()
	run, err := grid.New(plan).Execute(inputs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "RUN_ERROR", Message: err.Error()},
		})
		return
	}

	if req.WriteOutputs {
		if err := output.WriteRun(run, plan, cfg.Output.RawYields, cfg.Output.Efficiencies); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "OUTPUT_WRITE_ERROR", Message: err.Error()},
			})
			return
		}
	}

	log.Info().Str("hadron", string(plan.Hadron)).Int("cells", len(run.Matrix.Cells)).
		Dur("elapsed", time.Since(start)).Msg("extraction served")

	c.JSON(http.StatusOK, buildResponse(run, plan, time.Since(start)))
}

func loadConfig(path, inline string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if inline != "" {
		cfg, err = config.Parse([]byte(inline))
	} else {
		cfg, err = config.LoadUnchecked(path)
	}
	if err != nil {
		return nil, err
	}
	if cfg.MinEntries == 0 {
		cfg.MinEntries = 20
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildResponse(run *grid.Run, plan *config.Plan, elapsed time.Duration) models.ExtractResponse {
	counts := run.Matrix.CountByStatus()
	resp := models.ExtractResponse{
		Hadron:          string(plan.Hadron),
		PtBins:          len(plan.PtBins),
		WorkingPoints:   len(plan.NonPromptCuts),
		Cells:           len(run.Matrix.Cells),
		Complete:        counts[model.CellComplete],
		PartiallyFailed: counts[model.CellPartiallyFailed],
		Failed:          counts[model.CellFailed],
		ElapsedMs:       elapsed.Milliseconds(),
	}
	for _, f := range run.Matrix.Failures {
		resp.Failures = append(resp.Failures, models.FailureInfo{
			PtBin:        f.Key.PtBin,
			WorkingPoint: f.Key.WorkingPoint,
			Stage:        f.Stage,
			Error:        f.Err.Error(),
		})
	}
	for _, t := range analysis.ComputeTrends(run.Matrix, plan) {
		resp.Trends = append(resp.Trends, models.TrendInfo{
			PtBin:         t.PtBin,
			PtMin:         t.PtMin,
			PtMax:         t.PtMax,
			NPCuts:        t.NPCuts,
			Yields:        nullable(t.Yields),
			YieldErrors:   nullable(t.YieldErrors),
			Effs:          nullable(t.Effs),
			CompleteCells: t.CompleteCells,
			MeanChi2:      t.MeanChi2,
			MaxChi2:       t.MaxChi2,
			EffMonotonic:  t.EffMonotonic,
		})
	}
	return resp
}

// nullable maps NaN (missing cell) to JSON null.
func nullable(vals []float64) []*float64 {
	out := make([]*float64, len(vals))
	for i := range vals {
		if !math.IsNaN(vals[i]) {
			v := vals[i]
			out[i] = &v
		}
	}
	return out
}
