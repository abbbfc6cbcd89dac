// Package relay turns one inbound tracking request into at most two
// persisted records and at most one background conversion dispatch, with
// abuse filtering in front. Tracking is best-effort: the visitor's path to
// the streaming platform must survive every failure mode here.
package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/ignite/click-relay/internal/capi"
	"github.com/ignite/click-relay/internal/domain"
	"github.com/ignite/click-relay/internal/pkg/httputil"
	"github.com/ignite/click-relay/internal/pkg/logger"
)

// VisitStore persists page-load records.
type VisitStore interface {
	Insert(ctx context.Context, v *domain.Visit) error
	Exists(ctx context.Context, id string) (bool, error)
}

// EventStore persists click records.
type EventStore interface {
	Insert(ctx context.Context, e *domain.ClickEvent) error
}

// ConversionDispatcher fires conversion events without blocking the caller.
type ConversionDispatcher interface {
	Dispatch(events []capi.Event)
}

// Handler is the click relay's HTTP surface.
type Handler struct {
	visits           VisitStore
	events           EventStore
	dispatcher       ConversionDispatcher
	filter           *AbuseFilter
	allowedOrigins   []string
	defaultSourceURL string
}

// NewHandler creates the relay handler.
func NewHandler(visits VisitStore, events EventStore, dispatcher ConversionDispatcher,
	filter *AbuseFilter, allowedOrigins []string, defaultSourceURL string) *Handler {
	return &Handler{
		visits:           visits,
		events:           events,
		dispatcher:       dispatcher,
		filter:           filter,
		allowedOrigins:   allowedOrigins,
		defaultSourceURL: defaultSourceURL,
	}
}

// Routes builds the router: POST /event for tracking, OPTIONS handled for
// cross-origin preflight, GET /health for probes. Any other method on
// /event gets chi's 405.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     h.allowedOrigins,
		AllowedMethods:     []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"content-type", "authorization"},
		MaxAge:             300,
		OptionsPassthrough: true,
	}))
	r.Post("/event", h.HandleEvent)
	r.Options("/event", h.HandlePreflight)
	r.Get("/health", h.HandleHealth)
	return r
}

// HandlePreflight answers CORS preflight. The cors middleware has already
// attached the Access-Control headers; all that is left is the 204.
func (h *Handler) HandlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// HandleEvent runs the admission pipeline and branches on event type.
// Stage order matters: bot and rate checks run before the body is even
// parsed, dedup needs the body's click signature, and nothing is persisted
// until validation passes.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	ua := r.UserAgent()

	if h.filter.IsBot(ua) {
		logger.Info("bot blocked", "ip", ip, "user_agent", ua)
		httputil.Forbidden(w, "bot detected")
		return
	}

	if !h.filter.AdmitIP(ip) {
		logger.Info("rate limited", "ip", ip)
		httputil.TooManyRequests(w, "too many requests")
		return
	}

	var req EventRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	fbp, fbc := extractMetaCookies(r.Header.Get("Cookie"))

	switch domain.EventType(req.EventType) {
	case domain.EventPageview:
		h.handlePageview(w, r, &req, ip, ua, fbp, fbc)
	case domain.EventClick:
		h.handleClick(w, r, &req, ip, ua, fbp, fbc)
	}
}

func (h *Handler) handlePageview(w http.ResponseWriter, r *http.Request,
	req *EventRequest, ip, ua string, fbp, fbc *string) {
	visitID := req.VisitID
	if visitID == "" {
		visitID = uuid.NewString()
	}

	visit := &domain.Visit{
		ID:          visitID,
		FBP:         fbp,
		FBC:         fbc,
		IPTruncated: domain.TruncateIP(ip),
		UserAgent:   ua,
		UTM:         req.UTMs,
		SourceURL:   req.EventSourceURL,
	}
	if err := h.visits.Insert(r.Context(), visit); err != nil {
		httputil.InternalError(w, err)
		return
	}

	logger.Info("pageview recorded", "visit_id", visitID, "track_id", req.TrackID, "ip", ip)
	httputil.Ack(w)
}

func (h *Handler) handleClick(w http.ResponseWriter, r *http.Request,
	req *EventRequest, ip, ua string, fbp, fbc *string) {
	start := time.Now()

	// Duplicate signatures within the dedup window are double-clicks or
	// client retries: skip persistence and dispatch but still deliver the
	// visitor to the platform.
	if !h.filter.AdmitClick(ip, req.TrackID, req.Provider) {
		logger.Info("duplicate click suppressed",
			"ip", ip, "track_id", req.TrackID, "provider", req.Provider)
		h.respondClick(w, r, req)
		return
	}

	visitID, err := h.ensureVisit(r.Context(), req, ip, ua, fbp, fbc)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	visitDone := time.Now()

	event := &domain.ClickEvent{
		ID:             req.EventID,
		VisitID:        visitID,
		Type:           domain.EventClick,
		Provider:       req.Provider,
		TrackID:        req.TrackID,
		ButtonPosition: domain.ButtonPosition(req.Position),
		SourceEventID:  req.PageEventID,
	}
	if err := h.events.Insert(r.Context(), event); err != nil {
		httputil.InternalError(w, err)
		return
	}
	insertDone := time.Now()

	h.dispatcher.Dispatch(capi.BuildEvents(capi.ClickContext{
		EventID:   req.EventID,
		IP:        ip,
		UserAgent: ua,
		FBP:       fbp,
		FBC:       fbc,
		Provider:  req.Provider,
		TrackID:   req.TrackID,
		Position:  req.Position,
		SourceURL: req.EventSourceURL,
		UTM:       req.UTMs,
	}, time.Now(), h.defaultSourceURL))

	logger.Info("click recorded",
		"event_id", req.EventID, "visit_id", visitID,
		"track_id", req.TrackID, "provider", req.Provider, "position", req.Position)
	logger.Debug("click stage timings",
		"visit_ms", visitDone.Sub(start).Milliseconds(),
		"event_ms", insertDone.Sub(visitDone).Milliseconds(),
		"total_ms", time.Since(start).Milliseconds())

	h.respondClick(w, r, req)
}

// ensureVisit resolves the click's owning visit, creating a minimal one when
// the referenced visit was never stored (page beacon lost, ad blocker, or a
// direct API hit). A missing visit is self-healed, never a rejection.
func (h *Handler) ensureVisit(ctx context.Context, req *EventRequest,
	ip, ua string, fbp, fbc *string) (string, error) {
	visitID := req.VisitID
	if visitID != "" {
		exists, err := h.visits.Exists(ctx, visitID)
		if err != nil {
			return "", err
		}
		if exists {
			return visitID, nil
		}
	} else {
		visitID = uuid.NewString()
	}

	visit := &domain.Visit{
		ID:          visitID,
		FBP:         fbp,
		FBC:         fbc,
		IPTruncated: domain.TruncateIP(ip),
		UserAgent:   ua,
		UTM:         req.UTMs,
		SourceURL:   req.EventSourceURL,
	}
	if err := h.visits.Insert(ctx, visit); err != nil {
		return "", err
	}
	logger.Info("visit self-healed", "visit_id", visitID, "track_id", req.TrackID)
	return visitID, nil
}

// respondClick sends the visitor on their way: a 302 to the destination when
// the page supplied one, a JSON ack otherwise (fetch-based pages navigate
// themselves).
func (h *Handler) respondClick(w http.ResponseWriter, r *http.Request, req *EventRequest) {
	if req.RedirectURL != "" {
		http.Redirect(w, r, req.RedirectURL, http.StatusFound)
		return
	}
	httputil.Ack(w)
}
