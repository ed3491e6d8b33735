// Package handlers provides HTTP handlers for historical data operations.
package handlers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-constraints/internal/modules/historical"
	"github.com/aristath/sentinel-constraints/internal/modules/series"
)

// BarReader reads stored daily bars
type BarReader interface {
	Bars(ctx context.Context, isin string) ([]historical.DailyBar, error)
}

// ADVSource builds ADV tables on demand
type ADVSource interface {
	Build(ctx context.Context, isins []string, periods []time.Time) (*series.Table, error)
	Window() int
}

// Handler handles historical data HTTP requests
type Handler struct {
	bars     BarReader
	adv      ADVSource
	universe []string
	log      zerolog.Logger
}

// NewHandler creates a new historical data handler. universe is the default
// ISIN list for ADV requests that name none.
func NewHandler(
	bars BarReader,
	adv ADVSource,
	universe []string,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		bars:     bars,
		adv:      adv,
		universe: universe,
		log:      log.With().Str("handler", "historical").Logger(),
	}
}

// HandleGetDailyPrices handles GET /api/historical/prices/daily/{isin}
func (h *Handler) HandleGetDailyPrices(w http.ResponseWriter, r *http.Request, isin string) {
	limit := 100 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	bars, err := h.bars.Bars(r.Context(), isin)
	if err != nil {
		h.log.Error().Err(err).Str("isin", isin).Msg("Failed to get daily prices")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get daily prices"})
		return
	}

	// Latest first
	prices := make([]historical.DailyBar, 0, min(limit, len(bars)))
	for i := len(bars) - 1; i >= 0 && len(prices) < limit; i-- {
		prices = append(prices, bars[i])
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"isin":   isin,
			"prices": prices,
			"count":  len(prices),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetADV handles GET /api/historical/adv?period=YYYY-MM-DD&isins=A,B
//
// Values are dollar volume means over the bars before period; an asset
// without usable history is reported as null.
func (h *Handler) HandleGetADV(w http.ResponseWriter, r *http.Request) {
	periodStr := r.URL.Query().Get("period")
	if periodStr == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "period is required"})
		return
	}
	period, err := time.Parse("2006-01-02", periodStr)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid period, want YYYY-MM-DD"})
		return
	}

	isins := h.universe
	if isinsStr := r.URL.Query().Get("isins"); isinsStr != "" {
		isins = nil
		for _, isin := range strings.Split(isinsStr, ",") {
			if isin = strings.TrimSpace(isin); isin != "" {
				isins = append(isins, isin)
			}
		}
	}
	if len(isins) == 0 {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no ISINs requested"})
		return
	}

	table, err := h.adv.Build(r.Context(), isins, []time.Time{period})
	if err != nil {
		h.log.Error().Err(err).Str("period", periodStr).Msg("Failed to build ADV")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to build ADV"})
		return
	}
	row, err := table.Row(period)
	if err != nil {
		h.log.Error().Err(err).Str("period", periodStr).Msg("ADV row missing")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to build ADV"})
		return
	}

	values := make(map[string]*float64, len(isins))
	for i, isin := range table.Assets() {
		if math.IsNaN(row[i]) {
			values[isin] = nil
			continue
		}
		v := row[i]
		values[isin] = &v
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"period": period.Format("2006-01-02"),
			"window": h.adv.Window(),
			"adv":    values,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
