// Package api exposes curb lookups over HTTP. Handlers stay thin: parse,
// call the lookup core against the current snapshot, translate the outcome
// to a status code, and persist fully-resolved results.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/curbside/internal/cache"
	"github.com/sells-group/curbside/internal/model"
	"github.com/sells-group/curbside/internal/store"
	"github.com/sells-group/curbside/internal/sweep"
)

// Detail strings returned with 404 responses. Clients key off these.
const (
	DetailNoData     = "No street sweeping data found."
	DetailNoSchedule = "No street sweeping schedule found for this location."
	DetailNoUpcoming = "No upcoming street sweeping found."
)

// Server holds the handler dependencies.
type Server struct {
	source *sweep.Source
	store  store.Store        // optional; nil disables persistence
	cache  *cache.LookupCache // optional; nil disables caching
	loc    *time.Location
	now    func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables persistence of fully-resolved lookups.
func WithStore(st store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithCache enables the per-day result cache.
func WithCache(c *cache.LookupCache) Option {
	return func(s *Server) { s.cache = c }
}

// WithLocation sets the operational timezone. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.loc = loc }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer builds a Server over the published dataset source.
func NewServer(source *sweep.Source, opts ...Option) *Server {
	s := &Server{
		source: source,
		loc:    time.UTC,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router assembles the chi router with middleware and routes.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Post("/next_sweep", s.handleNextSweep)
	r.Get("/health", s.handleHealth)
	r.Get("/segments/{id}/rules", s.handleSegmentRules)
	r.Get("/stats", s.handleStats)

	return r
}

type nextSweepRequest struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PhoneNumber string  `json:"phone_number"`
}

type nextSweepResponse struct {
	Street         string `json:"street"`
	Blockside      string `json:"blockside"`
	LocationLimits string `json:"location_limits"`
	NextSweepDate  string `json:"next_sweep_date"`
	NextSweepTime  [2]int `json:"next_sweep_time"`
	DaysUntilSweep int    `json:"days_until_sweep"`
}

func (s *Server) handleNextSweep(w http.ResponseWriter, r *http.Request) {
	var req nextSweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		writeDetail(w, http.StatusBadRequest, "Coordinates out of range.")
		return
	}

	now := s.now().In(s.loc)
	point := model.Point{Longitude: req.Longitude, Latitude: req.Latitude}

	res, ok := s.cachedLookup(r, point, now)
	if !ok {
		var err error
		res, err = s.source.Snapshot().Lookup(point, now)
		if err != nil {
			if eris.Is(err, sweep.ErrNoSegments) {
				writeDetail(w, http.StatusServiceUnavailable, "Street sweeping dataset not loaded.")
				return
			}
			zap.L().Error("lookup failed", zap.Error(err))
			writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			return
		}
		s.cacheResult(r, point, now, res)
	}

	switch res.Outcome {
	case model.OutcomeNoSweepingHere:
		writeDetail(w, http.StatusNotFound, DetailNoData)
		return
	case model.OutcomeNoSweepingOnThisSide:
		writeDetail(w, http.StatusNotFound, DetailNoSchedule)
		return
	case model.OutcomeNoUpcomingSweep:
		writeDetail(w, http.StatusNotFound, DetailNoUpcoming)
		return
	}

	s.persist(r, req, res)

	writeJSON(w, http.StatusOK, nextSweepResponse{
		Street:         res.Street,
		Blockside:      string(res.Side),
		LocationLimits: fmt.Sprintf("%s - %s", res.FromCross, res.ToCross),
		NextSweepDate:  res.NextSweep.Format("Monday, January 2"),
		NextSweepTime:  [2]int{res.FromHour, res.ToHour},
		DaysUntilSweep: res.DaysUntil,
	})
}

func (s *Server) cachedLookup(r *http.Request, p model.Point, now time.Time) (model.LookupResult, bool) {
	if s.cache == nil {
		return model.LookupResult{}, false
	}
	return s.cache.Get(r.Context(), cache.Key(p, now))
}

func (s *Server) cacheResult(r *http.Request, p model.Point, now time.Time, res model.LookupResult) {
	if s.cache == nil {
		return
	}
	s.cache.Set(r.Context(), cache.Key(p, now), res)
}

// persist saves a resolved lookup as a parking record so the reminder batch
// can find it. Persistence is best-effort; the caller already has their
// answer.
func (s *Server) persist(r *http.Request, req nextSweepRequest, res model.LookupResult) {
	if s.store == nil || req.PhoneNumber == "" || !res.Found() {
		return
	}

	rec := &model.ParkingRecord{
		PhoneNumber: req.PhoneNumber,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Street:      res.Street,
		FromCross:   res.FromCross,
		ToCross:     res.ToCross,
		Side:        res.Side,
		SegmentID:   res.SegmentID,
		NextSweep:   res.NextSweep,
		FromHour:    res.FromHour,
		ToHour:      res.ToHour,
		DaysUntil:   res.DaysUntil,
	}
	if err := s.store.SaveLookup(r.Context(), rec); err != nil {
		zap.L().Error("save lookup failed",
			zap.String("segment_id", res.SegmentID),
			zap.Error(err),
		)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			zap.L().Warn("health: store unreachable", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type segmentRulesResponse struct {
	SegmentID string         `json:"segment_id"`
	Street    string         `json:"street"`
	Rules     []ruleResponse `json:"rules"`
}

type ruleResponse struct {
	Side     model.Side `json:"side"`
	Weekday  string     `json:"weekday"`
	Weeks    string     `json:"weeks"`
	FromHour int        `json:"from_hour"`
	ToHour   int        `json:"to_hour"`
}

func (s *Server) handleSegmentRules(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap := s.source.Snapshot()

	segs := snap.Segments()
	var seg *model.Segment
	for i := range segs {
		if segs[i].ID == id {
			seg = &segs[i]
			break
		}
	}
	if seg == nil {
		writeDetail(w, http.StatusNotFound, "Segment not found.")
		return
	}

	rules := snap.RulesFor(id, "")
	resp := segmentRulesResponse{
		SegmentID: seg.ID,
		Street:    seg.Corridor,
		Rules:     make([]ruleResponse, 0, len(rules)),
	}
	for _, rule := range rules {
		resp.Rules = append(resp.Rules, ruleResponse{
			Side:     rule.Side,
			Weekday:  rule.Weekday,
			Weeks:    rule.Weeks.String(),
			FromHour: rule.FromHour,
			ToHour:   rule.ToHour,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"segments":  len(snap.Segments()),
		"rules":     snap.RuleCount(),
		"loaded_at": snap.LoadedAt().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("write response failed", zap.Error(err))
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
