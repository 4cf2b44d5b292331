package webd

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"

	"github.com/tracklife/trajd/conceptual"
	"github.com/tracklife/trajd/params"
	"github.com/tracklife/trajd/types/activity"
	"github.com/tracklife/trajd/types/track"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Config    *params.WebDaemonConfig `json:"config"`
	Indexed   bool                    `json:"indexed"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Config:    s.Config,
		Indexed:   s.Analyzer.Indexer != nil,
	}
	j, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal status", "error", err)
		http.Error(w, "Failed to marshal status", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(j)
}

// writeJSON encodes v or 500s. Every query handler funnels through here.
func (s *WebDaemon) writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", "error", err)
		http.Error(w, "Failed to write response", http.StatusInternalServerError)
	}
}

// queryInt reads an integer query param, falling back on absence.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func (s *WebDaemon) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Analyzer.Summarize(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, summary)
}

func (s *WebDaemon) handleActivityStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Analyzer.ActivitiesPerUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, stats)
}

func (s *WebDaemon) handleTopActive(w http.ResponseWriter, r *http.Request) {
	k, err := queryInt(r, "k", s.Analyzer.Config.TopK)
	if err != nil {
		http.Error(w, "Bad k", http.StatusBadRequest)
		return
	}
	top, err := s.Analyzer.MostActiveUsers(r.Context(), k)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, top)
}

func (s *WebDaemon) handleTopAltitude(w http.ResponseWriter, r *http.Request) {
	k, err := queryInt(r, "k", s.Analyzer.Config.TopK)
	if err != nil {
		http.Error(w, "Bad k", http.StatusBadRequest)
		return
	}
	top, err := s.Analyzer.TopAltitudeGainers(r.Context(), k)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, top)
}

func (s *WebDaemon) handleDistance(w http.ResponseWriter, r *http.Request) {
	userID := conceptual.UserID(mux.Vars(r)["user"])
	if userID.Empty() {
		http.Error(w, "Missing user", http.StatusBadRequest)
		return
	}
	year, err := queryInt(r, "year", 0)
	if err != nil || year == 0 {
		http.Error(w, "Bad year", http.StatusBadRequest)
		return
	}
	mode := activity.Mode(r.URL.Query().Get("mode"))

	km, err := s.Analyzer.DistanceWalked(r.Context(), year, userID, mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]any{
		"user_id": userID,
		"year":    year,
		"mode":    mode,
		"km":      km,
	})
}

func (s *WebDaemon) handleInvalid(w http.ResponseWriter, r *http.Request) {
	counts, err := s.Analyzer.InvalidActivityCounts(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, counts)
}

func (s *WebDaemon) handleDayCrossers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Analyzer.DayCrossingUsers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]any{"count": len(users), "users": users})
}

func (s *WebDaemon) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.Analyzer.DuplicateActivities(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, pairs)
}

// handleNearby answers /nearby?lat=39.97548&lon=116.33031&t=2008-08-24 15:38:00
// with optional radius (meters) and window (seconds) overrides.
func (s *WebDaemon) handleNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		http.Error(w, "Bad lat/lon", http.StatusBadRequest)
		return
	}
	at, err := track.ParseTime(q.Get("t"))
	if err != nil {
		http.Error(w, "Bad t, want "+track.TimeLayout, http.StatusBadRequest)
		return
	}

	config := params.DefaultProximityConfig()
	if raw := q.Get("radius"); raw != "" {
		if config.RadiusMeters, err = strconv.ParseFloat(raw, 64); err != nil {
			http.Error(w, "Bad radius", http.StatusBadRequest)
			return
		}
	}
	if raw := q.Get("window"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Bad window", http.StatusBadRequest)
			return
		}
		config.Window = time.Duration(secs) * time.Second
	}
	if err := config.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	users, err := s.Analyzer.NearbyUsers(r.Context(), orb.Point{lon, lat}, at, config)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]any{"count": len(users), "users": users})
}

func (s *WebDaemon) handleModeUsers(w http.ResponseWriter, r *http.Request) {
	counts, err := s.Analyzer.DistinctUsersPerMode(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, counts)
}

func (s *WebDaemon) handleNeverMode(w http.ResponseWriter, r *http.Request) {
	mode := activity.Mode(r.URL.Query().Get("mode"))
	if !mode.IsLabeled() {
		http.Error(w, "Missing mode", http.StatusBadRequest)
		return
	}
	users, err := s.Analyzer.UsersNeverUsingMode(r.Context(), mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, users)
}

// handleBusiest reports the busiest calendar month and its most active
// users with their recorded hours.
func (s *WebDaemon) handleBusiest(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n", s.Analyzer.Config.TopK)
	if err != nil {
		http.Error(w, "Bad n", http.StatusBadRequest)
		return
	}
	ym, ok, err := s.Analyzer.BusiestMonth(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "No activities", http.StatusNotFound)
		return
	}
	rows, err := s.Analyzer.MostActiveInMonth(r.Context(), ym, n)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]any{"month": ym, "users": rows})
}
