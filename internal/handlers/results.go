package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"fitts-go/internal/export"
	"fitts-go/internal/metrics"
	"fitts-go/internal/models"
	"fitts-go/internal/recorder"
	"fitts-go/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

type ResultsHandler struct {
	log   *zap.Logger
	store *repository.Store
}

func NewResultsHandler(log *zap.Logger, store *repository.Store) *ResultsHandler {
	return &ResultsHandler{log: log, store: store}
}

// ShowResults returns per-condition statistics and the movement time fit for
// every cursor type the participant used.
func (h *ResultsHandler) ShowResults(c *gin.Context) {
	participantID, trials, ok := h.loadTrials(c)
	if !ok {
		return
	}
	sessions, err := h.store.ListSessions(c.Request.Context(), participantID)
	if err != nil {
		h.log.Error("Failed to list sessions", zap.Int("participant", participantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"participantId": participantID,
		"sessions":      sessions,
		"trials":        len(trials),
		"reports":       metrics.BuildReports(trials),
	})
}

// Chart returns echarts options plotting mean movement time against index of
// difficulty, with the fitted line for each cursor type. Means are aggregated
// by the database.
func (h *ResultsHandler) Chart(c *gin.Context) {
	participantID, err := strconv.Atoi(c.Param("participant"))
	if err != nil || participantID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant id"})
		return
	}
	summaries, err := h.store.ConditionSummaries(c.Request.Context(), participantID)
	if err != nil {
		h.log.Error("Failed to load condition summaries", zap.Int("participant", participantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load results"})
		return
	}
	chart := generateFittsChart(participantID, summaries)
	c.JSON(http.StatusOK, chart.JSON())
}

// ExportXLSX downloads the participant's trials as a workbook.
func (h *ResultsHandler) ExportXLSX(c *gin.Context) {
	participantID, trials, ok := h.loadTrials(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="participant_%d.xlsx"`, participantID))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := export.WriteWorkbook(c.Writer, trials); err != nil {
		h.log.Error("Failed to write workbook", zap.Int("participant", participantID), zap.Error(err))
	}
}

// ExportCSV downloads the participant's trials in the trial log format.
func (h *ResultsHandler) ExportCSV(c *gin.Context) {
	participantID, trials, ok := h.loadTrials(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="participant_%d.csv"`, participantID))
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	w.Write(recorder.Header)
	for _, t := range trials {
		w.Write(recorder.ResultRow(t))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.log.Error("Failed to write CSV export", zap.Int("participant", participantID), zap.Error(err))
	}
}

func (h *ResultsHandler) loadTrials(c *gin.Context) (int, []models.TrialResult, bool) {
	participantID, err := strconv.Atoi(c.Param("participant"))
	if err != nil || participantID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant id"})
		return 0, nil, false
	}
	trials, err := h.store.ListParticipantTrials(c.Request.Context(), participantID)
	if err != nil {
		h.log.Error("Failed to load trials", zap.Int("participant", participantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load trials"})
		return 0, nil, false
	}
	return participantID, trials, true
}

func generateFittsChart(participantID int, summaries []repository.ConditionSummary) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Movement Time vs. Index of Difficulty",
			Subtitle: fmt.Sprintf("Participant %d", participantID),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "value",
			Name: "ID (bits)",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Name:  "MT (ms)",
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	var cursors []string
	ids := make(map[string][]float64)
	mts := make(map[string][]float64)
	for _, s := range summaries {
		if _, ok := ids[s.CursorType]; !ok {
			cursors = append(cursors, s.CursorType)
		}
		ids[s.CursorType] = append(ids[s.CursorType], metrics.IndexOfDifficulty(s.Amplitude, s.TargetSize))
		mts[s.CursorType] = append(mts[s.CursorType], s.MeanMovementTime)
	}

	for _, cursor := range cursors {
		xs, ys := ids[cursor], mts[cursor]
		items := make([]opts.ScatterData, 0, len(xs))
		for i := range xs {
			items = append(items, opts.ScatterData{Value: []interface{}{xs[i], ys[i]}})
		}
		scatter.AddSeries(cursor, items)

		fit, err := metrics.LinearFit(xs, ys)
		if err != nil {
			continue
		}
		lo, hi := slices.Min(xs), slices.Max(xs)
		line := charts.NewLine()
		line.AddSeries(fmt.Sprintf("%s fit (R² %.2f)", cursor, fit.R2), []opts.LineData{
			{Value: []interface{}{lo, fit.Predict(lo)}},
			{Value: []interface{}{hi, fit.Predict(hi)}},
		}).SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
		scatter.Overlap(line)
	}
	return scatter
}
