// File: internal/server/handlers.go
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/surveypilot/internal/config"
	"github.com/xkilldash9x/surveypilot/internal/reporting"
	"github.com/xkilldash9x/surveypilot/internal/service"
)

const releaseTimeout = 15 * time.Second

// fillRequest carries per-request campaign overrides. Empty fields keep the configured values.
type fillRequest struct {
	RestaurantNum string `json:"restaurantNum"`
	DateStart     string `json:"dateStart"`
	DateEnd       string `json:"dateEnd"`
	HourStart     string `json:"hourStart"`
	HourEnd       string `json:"hourEnd"`
	OrderMode     string `json:"orderMode"`
	Comment       string `json:"comment"`
	// Count is only read by /fill-multiple.
	Count int `json:"count"`
}

// fillResponse is the campaign report plus the request level summary.
type fillResponse struct {
	Success bool `json:"success"`
	Total   int  `json:"total"`
	reporting.Document
	Error string `json:"error,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok", "message": "surveypilot fill service"})
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	s.fill(w, r, req, 1)
}

func (s *Server) handleFillMultiple(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	count := req.Count
	if count < 1 {
		count = 1
	}
	if limit := s.cfg.Server.MaxSurveys; count > limit {
		count = limit
	}
	s.fill(w, r, req, count)
}

// decode reads the optional JSON body. An empty body means "all defaults".
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (fillRequest, bool) {
	var req fillRequest
	err := json.ConfigCompatibleWithStandardLibrary.NewDecoder(r.Body).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return req, false
	}
	return req, true
}

// fill runs count questionnaires for req and writes the campaign report.
func (s *Server) fill(w http.ResponseWriter, r *http.Request, req fillRequest, count int) {
	ctx := r.Context()
	log := s.logger.With(zap.String("request_id", middleware.GetReqID(ctx)))

	cfg := s.campaignConfig(req, count)
	components, err := service.NewComponents(cfg, s.now(), log)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	select {
	case s.slot <- struct{}{}:
		defer func() { <-s.slot }()
	case <-ctx.Done():
		s.respondWithError(w, http.StatusServiceUnavailable, "request canceled while waiting for the browser")
		return
	}

	drv, err := s.drivers.NewDriver(ctx)
	if err != nil {
		log.Error("Could not start a driver.", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := s.drivers.Release(releaseCtx, drv); err != nil {
			log.Warn("Error releasing driver.", zap.Error(err))
		}
	}()

	log.Info("Fill request accepted.", zap.Int("count", count), zap.String("site_id", cfg.Campaign.SiteID))
	report, runErr := components.Runner.Run(ctx, drv)

	resp := fillResponse{
		Success:  runErr == nil && report.Failed == 0,
		Total:    count,
		Document: reporting.NewDocument(report),
	}
	status := http.StatusOK
	if runErr != nil {
		resp.Error = runErr.Error()
		status = http.StatusServiceUnavailable
	}
	s.respond(w, status, resp)
}

// campaignConfig copies the configured defaults and applies the request overrides.
func (s *Server) campaignConfig(req fillRequest, count int) *config.Config {
	cfg := *s.cfg
	c := &cfg.Campaign
	for _, o := range []struct {
		dst *string
		val string
	}{
		{&c.SiteID, req.RestaurantNum},
		{&c.DateStart, req.DateStart},
		{&c.DateEnd, req.DateEnd},
		{&c.HourStart, req.HourStart},
		{&c.HourEnd, req.HourEnd},
		{&c.OrderMode, req.OrderMode},
		{&c.Comment, req.Comment},
	} {
		if v := strings.TrimSpace(o.val); v != "" {
			*o.dst = v
		}
	}
	c.SurveyCount = count
	c.DelayBetween = s.cfg.Server.DelayBetween
	c.ReportPath = ""
	return &cfg
}

func (s *Server) respond(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.ConfigCompatibleWithStandardLibrary.Marshal(body)
	if err != nil {
		s.logger.Error("Failed to encode response.", zap.Error(err))
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("Client went away before the response was written.", zap.Error(err))
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, status int, msg string) {
	s.respond(w, status, errorResponse{Success: false, Error: msg})
}
