package httpapi

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"

	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/fundamentals"
	"github.com/sawpanic/equitycore/internal/orchestrator"
	"github.com/sawpanic/equitycore/internal/provider"
)

var tickerPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.\-]{0,9}$`)

func validateTicker(raw string) (string, bool) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	return ticker, tickerPattern.MatchString(ticker)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed encoding response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := r.Context().Value("request_id").(string)
	if requestID == "" {
		requestID = "unknown"
	}
	s.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusNotFound, "endpoint_not_found", "the requested endpoint does not exist")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		Uptime:        humanize.RelTime(s.startedAt, time.Now(), "ago", "from now"),
		Version:       s.config.Version,
	})
}

// technicalStatusForErr maps a market-sensor failure onto spec.md §7's
// "500 only on terminal technical-pipeline failure" / "400 on bad ticker
// syntax" policy. TickerNotFound is the one provider-level kind that maps
// to a client error instead, since it reflects the request, not the
// pipeline.
func technicalStatusForErr(err error) (int, string) {
	if provider.IsKind(err, provider.KindTickerNotFound) {
		return http.StatusNotFound, "ticker_not_found"
	}
	return http.StatusInternalServerError, "technical_pipeline_failure"
}

func (s *Server) handleTechnical(w http.ResponseWriter, r *http.Request) {
	ticker, ok := validateTicker(mux.Vars(r)["ticker"])
	if !ok {
		s.writeError(w, r, http.StatusBadRequest, "invalid_ticker", "ticker must be 1-10 alphanumeric characters (dots/hyphens allowed)")
		return
	}
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1d"
	}

	series, tech, signal, err := s.computeTechnical(r.Context(), ticker, interval)
	if err != nil {
		status, code := technicalStatusForErr(err)
		s.writeError(w, r, status, code, err.Error())
		return
	}
	_ = series

	s.writeJSON(w, http.StatusOK, TechnicalResponse{
		Ticker:     ticker,
		Interval:   interval,
		Timestamp:  time.Now().UTC(),
		Technicals: tech,
		Signal:     signal,
	})
}

func (s *Server) handleFundamental(w http.ResponseWriter, r *http.Request) {
	ticker, ok := validateTicker(mux.Vars(r)["ticker"])
	if !ok {
		s.writeError(w, r, http.StatusBadRequest, "invalid_ticker", "ticker must be 1-10 alphanumeric characters (dots/hyphens allowed)")
		return
	}
	if s.fundamentalsFetcher == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "fundamentals_unavailable", "no fundamentals data source configured")
		return
	}
	in, err := s.fundamentalsFetcher.Fetch(r.Context(), ticker)
	if err != nil {
		s.writeError(w, r, http.StatusBadGateway, "fundamentals_fetch_failed", err.Error())
		return
	}
	result := fundamentals.Run(in)
	s.writeJSON(w, http.StatusOK, FundamentalResponse{Ticker: ticker, Timestamp: time.Now().UTC(), Result: result})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ticker, ok := validateTicker(mux.Vars(r)["ticker"])
	if !ok {
		s.writeError(w, r, http.StatusBadRequest, "invalid_ticker", "ticker must be 1-10 alphanumeric characters (dots/hyphens allowed)")
		return
	}
	if s.newsAgg == nil {
		s.writeJSON(w, http.StatusOK, NewsResponse{Ticker: ticker, Timestamp: time.Now().UTC(), Digest: domain.NewsDigest{}})
		return
	}
	digest := s.newsAgg.Fetch(r.Context(), ticker)
	s.writeJSON(w, http.StatusOK, NewsResponse{Ticker: ticker, Timestamp: time.Now().UTC(), Digest: digest})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	ticker, ok := validateTicker(mux.Vars(r)["ticker"])
	if !ok {
		s.writeError(w, r, http.StatusBadRequest, "invalid_ticker", "ticker must be 1-10 alphanumeric characters (dots/hyphens allowed)")
		return
	}
	mc, err := s.contextSensor.Fetch(r.Context(), ticker)
	if err != nil {
		s.writeError(w, r, http.StatusBadGateway, "context_fetch_failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ContextResponse{Ticker: ticker, Timestamp: time.Now().UTC(), Context: mc})
}

// modeFromQuery maps spec.md §6's richer ?mode= vocabulary onto the three
// pipeline modes the Orchestrator distinguishes; the per-horizon values
// (swing/positional/longterm) still run the full pipeline and let the
// caller read the relevant horizon out of the response.
func modeFromQuery(raw string) orchestrator.Mode {
	switch strings.ToLower(raw) {
	case "intraday":
		return orchestrator.ModeIntraday
	case "execution":
		return orchestrator.ModeExecution
	default:
		return orchestrator.ModeAll
	}
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	ticker, ok := validateTicker(mux.Vars(r)["ticker"])
	if !ok {
		s.writeError(w, r, http.StatusBadRequest, "invalid_ticker", "ticker must be 1-10 alphanumeric characters (dots/hyphens allowed)")
		return
	}

	if _, _, _, err := s.computeTechnical(r.Context(), ticker, "1d"); err != nil {
		status, code := technicalStatusForErr(err)
		s.writeError(w, r, status, code, err.Error())
		return
	}

	mode := modeFromQuery(r.URL.Query().Get("mode"))
	forceAI, _ := strconv.ParseBool(r.URL.Query().Get("force_ai"))

	resp := s.orch.Analyze(r.Context(), orchestrator.Request{Ticker: ticker, Mode: mode, ForceAI: forceAI}, s.fundamentalsFetcher)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResearchReport(w http.ResponseWriter, r *http.Request) {
	ticker, ok := validateTicker(mux.Vars(r)["ticker"])
	if !ok {
		s.writeError(w, r, http.StatusBadRequest, "invalid_ticker", "ticker must be 1-10 alphanumeric characters (dots/hyphens allowed)")
		return
	}

	if _, _, _, err := s.computeTechnical(r.Context(), ticker, "1d"); err != nil {
		status, code := technicalStatusForErr(err)
		s.writeError(w, r, status, code, err.Error())
		return
	}

	resp := s.orch.Analyze(r.Context(), orchestrator.Request{Ticker: ticker, Mode: orchestrator.ModeAll, ForceAI: true}, s.fundamentalsFetcher)
	s.writeJSON(w, http.StatusOK, ResearchReportResponse{Ticker: ticker, Timestamp: time.Now().UTC(), Report: resp})
}
