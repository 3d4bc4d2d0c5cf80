package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jaam8/vote_tracker/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type RestHandler struct {
	s     VoteService
	tl    TimelineView
	l     *zap.Logger
	txURL TxURLFunc
}

func NewRest(s VoteService, tl TimelineView, l *zap.Logger, txURL TxURLFunc) *RestHandler {
	return &RestHandler{
		s:     s,
		tl:    tl,
		l:     l,
		txURL: txURL,
	}
}

type castVoteRequest struct {
	OptionIndex *int `json:"option_index"`
}

type txResponse struct {
	Status   models.TxStatus `json:"status"`
	Progress Progress        `json:"progress"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router serves the JSON API and, when gatherer is set, /metrics.
func (h *RestHandler) Router(gatherer prometheus.Gatherer, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/poll", h.GetPoll).Methods(http.MethodGet)
	api.HandleFunc("/tally", h.GetTally).Methods(http.MethodGet)
	api.HandleFunc("/timeline", h.GetTimeline).Methods(http.MethodGet)
	api.HandleFunc("/tx", h.GetTx).Methods(http.MethodGet)
	api.HandleFunc("/session", h.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/votes", h.PostVote).Methods(http.MethodPost)
	api.HandleFunc("/logout", h.PostLogout).Methods(http.MethodPost)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(r)
}

func (h *RestHandler) GetPoll(w http.ResponseWriter, _ *http.Request) {
	poll, err := h.s.Poll()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, poll)
}

func (h *RestHandler) GetTally(w http.ResponseWriter, _ *http.Request) {
	res, err := h.s.Results()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *RestHandler) GetTimeline(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.tl.Current())
}

func (h *RestHandler) GetTx(w http.ResponseWriter, _ *http.Request) {
	status := h.s.TxStatus()
	h.writeJSON(w, http.StatusOK, txResponse{
		Status:   status,
		Progress: NewProgress(status, h.txURL),
	})
}

func (h *RestHandler) GetSession(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.s.Session())
}

func (h *RestHandler) PostVote(w http.ResponseWriter, r *http.Request) {
	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OptionIndex == nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be {\"option_index\": n}"})
		return
	}
	status, err := h.s.CastVote(*req.OptionIndex)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.l.Info("vote started over rest",
		zap.String("attempt_id", status.AttemptID),
		zap.Int("option_index", *req.OptionIndex))
	h.writeJSON(w, http.StatusAccepted, txResponse{
		Status:   status,
		Progress: NewProgress(status, h.txURL),
	})
}

func (h *RestHandler) PostLogout(w http.ResponseWriter, _ *http.Request) {
	h.s.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, models.ErrPollNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrOptionIsNotFound):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrVoteAlreadyExists),
		errors.Is(err, models.ErrVoteInFlight),
		errors.Is(err, models.ErrPollIsEnd):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *RestHandler) writeError(w http.ResponseWriter, err error) {
	code := statusCode(err)
	msg := errorMessage(err)
	if code == http.StatusInternalServerError {
		h.l.Error("request failed", zap.Error(err))
	}
	h.writeJSON(w, code, errorResponse{Error: msg})
}

func (h *RestHandler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.l.Error("failed to encode response", zap.Error(err))
	}
}
