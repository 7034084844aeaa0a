package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/xtding233/gacha-planner/internal/plan"
	"github.com/xtding233/gacha-planner/internal/sim"
)

const maxBodyBytes = 1 << 20

type errResp struct {
	Err string `json:"err"`
}

type rateResp struct {
	Kind string  `json:"kind"`
	Pity int     `json:"pity"`
	Rate float64 `json:"rate"`
}

type bannerResp struct {
	ID         string    `json:"id"`
	Start      string    `json:"start,omitempty"`
	End        string    `json:"end,omitempty"`
	Characters []string  `json:"characters,omitempty"`
	Weapons    [2]string `json:"weapons"`
	Active     bool      `json:"active"`
}

func parseInt(r *http.Request, key string) (int, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case IsInvalid(err):
		status = http.StatusBadRequest
	case errors.Is(err, sim.ErrCanceled):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errResp{Err: err.Error()})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}

// Handler returns the HTTP API over svc.
func Handler(svc *Service, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /v1/simulate", func(w http.ResponseWriter, r *http.Request) {
		var req PlanRequest
		if err := decode(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		resp, err := svc.Simulate(r.Context(), req)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
	mux.HandleFunc("POST /v1/optimize", func(w http.ResponseWriter, r *http.Request) {
		var req OptimizeRequest
		if err := decode(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		resp, err := svc.Optimize(r.Context(), req)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
	mux.HandleFunc("POST /v1/estimate", func(w http.ResponseWriter, r *http.Request) {
		var req EstimateRequest
		if err := decode(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		resp, err := svc.Estimate(r.Context(), req)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
	mux.HandleFunc("GET /v1/rate", func(w http.ResponseWriter, r *http.Request) {
		kind := r.URL.Query().Get("kind")
		if kind == "" {
			kind = string(plan.KindCharacter)
		}
		pity, ok, msg := parseInt(r, "pity")
		if msg != "" || !ok {
			if msg == "" {
				msg = "missing param pity"
			}
			writeJSON(w, http.StatusBadRequest, errResp{Err: msg})
			return
		}
		rate, err := svc.Rate(plan.GoalKind(kind), pity)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rateResp{Kind: kind, Pity: pity, Rate: rate})
	})
	mux.HandleFunc("GET /v1/banners", func(w http.ResponseWriter, r *http.Request) {
		banners, err := svc.Banners()
		if err != nil {
			writeErr(w, err)
			return
		}
		now := time.Now()
		out := make([]bannerResp, 0, len(banners))
		for _, b := range banners {
			br := bannerResp{ID: b.ID, Characters: b.Characters, Weapons: b.Weapons, Active: b.Active(now)}
			if !b.Start.IsZero() {
				br.Start = b.Start.Format(time.DateOnly)
			}
			if !b.End.IsZero() {
				br.End = b.End.Format(time.DateOnly)
			}
			out = append(out, br)
		}
		writeJSON(w, http.StatusOK, out)
	})
	return logRequests(mux, log)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(started),
		)
	})
}
