package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// renderSparkline renders a small PNG line chart from a close-price series.
func renderSparkline(closes []float64) ([]byte, error) {
	if len(closes) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(closes))
	}

	xValues := make([]float64, len(closes))
	for i := range closes {
		xValues[i] = float64(i)
	}

	series := chart.ContinuousSeries{
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.0,
		},
		XValues: xValues,
		YValues: closes,
	}

	graph := chart.Chart{
		Width:  300,
		Height: 80,
		Background: chart.Style{
			Padding: chart.Box{Top: 4, Left: 4, Right: 4, Bottom: 4},
		},
		XAxis: chart.XAxis{Style: chart.Hidden()},
		YAxis: chart.YAxis{Style: chart.Hidden()},
		Series: []chart.Series{
			series,
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// handleTradeSparkline handles GET /api/trades/{id}/sparkline.png.
// Missing trades and trades without enough points both 404.
func (s *Server) handleTradeSparkline(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	trade, err := s.app.Storage.Trades().Get(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Str("trade_id", id).Msg("Failed to get trade for sparkline")
		WriteError(w, http.StatusInternalServerError, "failed to get trade")
		return
	}
	if trade == nil {
		WriteError(w, http.StatusNotFound, "trade not found")
		return
	}
	if len(trade.Sparkline) < 2 {
		WriteError(w, http.StatusNotFound, "no sparkline data for trade")
		return
	}

	png, err := renderSparkline(trade.Sparkline)
	if err != nil {
		s.logger.Error().Err(err).Str("trade_id", id).Msg("Failed to render sparkline")
		WriteError(w, http.StatusInternalServerError, "failed to render sparkline")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
