package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"eventrsvp/internal/delivery/http/controllers"
	h "eventrsvp/internal/delivery/http/helpers"
	"eventrsvp/internal/delivery/http/middleware"
)

// Pinger reports database reachability for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps bundles what NewRouter needs to build the handler tree.
type RouterDeps struct {
	Logger         *slog.Logger
	DB             Pinger
	Sessions       *middleware.SessionAuth
	LoginLimiter   *middleware.IPRateLimiter
	AllowedOrigins []string

	Auth        *controllers.AuthController
	Events      *controllers.EventController
	RSVPs       *controllers.RSVPController
	Invitations *controllers.InvitationController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()
	auth := d.Sessions.RequireSession

	// Auth
	mux.HandleFunc("POST /api/auth/register", d.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", d.LoginLimiter.Limit(d.Auth.Login))
	mux.HandleFunc("POST /api/auth/logout", d.Sessions.RequireSessionNoRefresh(d.Auth.Logout))
	mux.HandleFunc("GET /api/auth/me", auth(d.Auth.Me))

	// Events
	mux.HandleFunc("GET /api/events", d.Events.ListEvents)
	mux.HandleFunc("POST /api/events", auth(d.Events.CreateEvent))
	mux.HandleFunc("GET /api/events/{id}", d.Events.GetEvent)
	mux.HandleFunc("PUT /api/events/{id}", auth(d.Events.UpdateEvent))
	mux.HandleFunc("DELETE /api/events/{id}", auth(d.Events.DeleteEvent))

	// RSVPs
	mux.HandleFunc("GET /api/events/{id}/rsvps", d.RSVPs.GetRSVPSummary)
	mux.HandleFunc("POST /api/events/{id}/rsvp", d.Sessions.OptionalSession(d.RSVPs.SubmitRSVP))
	mux.HandleFunc("GET /api/rsvp/summary", d.RSVPs.GroupByResponse)

	// Invitations
	mux.HandleFunc("POST /api/events/{id}/invite", auth(d.Invitations.Invite))
	mux.HandleFunc("GET /api/events/{id}/invitations", auth(d.Invitations.ListInvitations))

	mux.HandleFunc("GET /healthz", healthz(d.DB))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "route not found")
	})

	var handler http.Handler = mux
	handler = middleware.CORS(d.AllowedOrigins, handler)
	handler = middleware.LoggingMiddleware(d.Logger, handler)
	return middleware.Metrics(handler)
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				h.WriteJSONError(w, http.StatusServiceUnavailable, h.ErrCodeInternalError, "database unavailable")
				return
			}
		}
		h.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
