package powerapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/upnepa/gridlog/core/logger"
	"github.com/upnepa/gridlog/core/metrics"
	"github.com/upnepa/gridlog/core/model"
	"github.com/upnepa/gridlog/core/reconcile"
	"github.com/upnepa/gridlog/core/region"
	"github.com/upnepa/gridlog/core/store"
	"github.com/upnepa/gridlog/core/timeline"
	"github.com/upnepa/gridlog/internal/eventbus"
	"github.com/upnepa/gridlog/pkg/export"
)

// API exposes the timeline engine over HTTP. It is a thin layer: every
// handler validates input, calls into core and encodes the result.
type API struct {
	cfg      Config
	users    store.UserDirectory
	events   store.EventStore
	catalog  store.RegionCatalog
	stats    *timeline.Service
	recon    *reconcile.Reconciler
	resolver *region.Cache
	bus      *eventbus.Bus
	sink     metrics.Sink
	log      logger.Logger
}

// New wires the API. A nil sink disables metrics, a nil bus disables event
// fanout.
func New(cfg Config, users store.UserDirectory, events store.EventStore, catalog store.RegionCatalog,
	stats *timeline.Service, recon *reconcile.Reconciler, resolver *region.Cache,
	bus *eventbus.Bus, sink metrics.Sink, log logger.Logger) *API {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &API{
		cfg: cfg, users: users, events: events, catalog: catalog,
		stats: stats, recon: recon, resolver: resolver, bus: bus, sink: sink, log: log,
	}
}

// Routes builds the HTTP handler for all endpoints.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.HandleFunc("POST /api/register", a.handleRegister)
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.HandleFunc("POST /api/log-power", a.requireAuth(a.handleLogPower))
	mux.HandleFunc("GET /api/stats", a.requireAuth(a.handleStats))
	mux.HandleFunc("GET /api/recent-events", a.requireAuth(a.handleRecentEvents))
	mux.HandleFunc("GET /api/report", a.requireAuth(a.handleReport))
	mux.HandleFunc("GET /api/export", a.requireAuth(a.handleExport))
	mux.HandleFunc("GET /api/regions", a.handleRegions)
	mux.HandleFunc("GET /api/resolve-region", a.handleResolveRegion)
	mux.HandleFunc("POST /api/reconcile", a.handleReconcile)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requireAuth resolves the bearer token into a username and passes it on.
func (a *API) requireAuth(next func(w http.ResponseWriter, r *http.Request, userID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "token is missing")
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		claims, err := ValidateToken(token, a.cfg.JWTSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "token is invalid")
			return
		}
		next(w, r, claims.UserID)
	}
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Location string `json:"location"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	existing, err := a.users.GetUser(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "username already exists")
		return
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	regionID := a.resolver.Resolve(req.Location)
	user := model.User{
		Username:  req.Username,
		Password:  hash,
		Email:     req.Email,
		Location:  req.Location,
		RegionID:  regionID,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.users.CreateUser(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	token, err := GenerateToken(a.cfg.JWTSecret, req.Username, time.Duration(a.cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message":  "user registered successfully",
		"token":    token,
		"username": req.Username,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	user, err := a.users.GetUser(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil || !CheckPassword(user.Password, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := GenerateToken(a.cfg.JWTSecret, req.Username, time.Duration(a.cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "login successful",
		"token":    token,
		"username": req.Username,
	})
}

func (a *API) handleLogPower(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		EventType string `json:"event_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}
	typ := model.EventType(req.EventType)
	if !typ.Valid() {
		writeError(w, http.StatusBadRequest, `event_type must be "on" or "off"`)
		return
	}
	user, err := a.users.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	location, regionID := "", ""
	if user != nil {
		location, regionID = user.Location, user.RegionID
	}
	ev := model.NewPowerEvent(userID, typ, time.Now().UTC(), location, regionID, false)
	if err := a.events.Append(r.Context(), ev); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if a.bus != nil {
		a.bus.Publish(ev)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "power " + string(typ) + " logged successfully",
		"timestamp": ev.Timestamp.Format(time.RFC3339),
		"date":      ev.Date,
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request, userID string) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = timeline.PeriodWeek
	}
	stats, err := a.stats.Stats(r.Context(), userID, period, time.Now().UTC(), 10)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleRecentEvents(w http.ResponseWriter, r *http.Request, userID string) {
	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	events, err := a.events.Recent(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type reportSummary struct {
	TodayHours    float64             `json:"today_hours"`
	WeekHours     float64             `json:"week_hours"`
	MonthHours    float64             `json:"month_hours"`
	AvgDailyHours float64             `json:"avg_daily_hours"`
	LastEvent     *timeline.LastEvent `json:"last_event"`
}

type reportTotals struct {
	TodayEvents int `json:"today_events"`
	WeekEvents  int `json:"week_events"`
	MonthEvents int `json:"month_events"`
}

func (a *API) handleReport(w http.ResponseWriter, r *http.Request, userID string) {
	rep, err := a.stats.Report(r.Context(), userID, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": reportSummary{
			TodayHours:    rep.TodayHours,
			WeekHours:     rep.WeekHours,
			MonthHours:    rep.MonthHours,
			AvgDailyHours: rep.AvgDailyHours,
			LastEvent:     rep.LastEvent,
		},
		"totals": reportTotals{
			TodayEvents: rep.TodayEvents,
			WeekEvents:  rep.WeekEvents,
			MonthEvents: rep.MonthEvents,
		},
	})
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request, userID string) {
	events, err := a.events.ListByUser(r.Context(), userID, time.Time{}, time.Time{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	format := r.URL.Query().Get("format")
	switch format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="power_logs.csv"`)
		if err := export.WriteCSV(w, events); err != nil {
			a.log.Errorf("export csv: %v", err)
		}
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="power_logs.json"`)
		if err := export.WriteJSON(w, events); err != nil {
			a.log.Errorf("export json: %v", err)
		}
	default:
		writeError(w, http.StatusBadRequest, "format must be csv or json")
	}
}

func (a *API) handleRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := a.catalog.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"regions": regions})
}

func (a *API) handleResolveRegion(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	id := a.resolver.Resolve(location)
	if rec, ok := a.sink.(metrics.ResolutionRecorder); ok {
		if err := rec.RecordResolution(metrics.ResolutionEvent{Matched: id != "", RegionID: id}); err != nil {
			a.log.Warnf("record resolution: %v", err)
		}
	}
	var regionID *string
	if id != "" {
		regionID = &id
	}
	writeJSON(w, http.StatusOK, map[string]any{"region_id": regionID})
}

// handleReconcile triggers a single tick. Requests must include an
// Authorization header with "Bearer <token>" when an admin token is
// configured.
func (a *API) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if a.cfg.AdminToken != "" {
		if r.Header.Get("Authorization") != "Bearer "+a.cfg.AdminToken {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
	}
	dryRun := false
	if s := r.URL.Query().Get("dry_run"); s != "" {
		dryRun = s == "1" || strings.EqualFold(s, "true")
	}
	count, err := a.recon.Tick(r.Context(), time.Now().UTC(), dryRun)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events_created": count,
		"dry_run":        dryRun,
	})
}
