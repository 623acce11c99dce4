package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/fundtrack/fundtrack/internal/auth"
	"github.com/fundtrack/fundtrack/internal/health"
	"github.com/fundtrack/fundtrack/internal/realtime"
	"github.com/fundtrack/fundtrack/internal/scheduler"
	"github.com/fundtrack/fundtrack/internal/services"
	"github.com/gorilla/websocket"
	"github.com/juju/clock"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("fundtrack.handlers")

// GoogleProvider runs the OAuth code flow against Google.
type GoogleProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (auth.GoogleProfile, error)
}

// Options wires a Handler. Google may be nil, which disables the Google
// routes. Health and Scheduler are optional extras for /health.
type Options struct {
	Identity      *services.IdentityService
	Companies     *services.CompanyService
	Notifications *services.NotificationService
	Projects      *services.ProjectService
	Google        GoogleProvider
	Hub           *realtime.Hub
	Clock         clock.Clock
	Health        *health.Checker
	Scheduler     *scheduler.Scheduler

	ClientURL      string
	AllowedOrigins []string
	CookieDomain   string
	CookieSecure   bool
	TokenTTL       time.Duration
}

type Handler struct {
	identity      *services.IdentityService
	companies     *services.CompanyService
	notifications *services.NotificationService
	projects      *services.ProjectService
	google        GoogleProvider
	hub           *realtime.Hub
	clock         clock.Clock
	health        *health.Checker
	scheduler     *scheduler.Scheduler
	upgrader      websocket.Upgrader

	clientURL    string
	cookieDomain string
	cookieSecure bool
	tokenTTL     time.Duration
}

func New(opts Options) *Handler {
	clk := opts.Clock
	if clk == nil {
		clk = clock.WallClock
	}

	allowed := make(map[string]bool, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		allowed[origin] = true
	}

	return &Handler{
		identity:      opts.Identity,
		companies:     opts.Companies,
		notifications: opts.Notifications,
		projects:      opts.Projects,
		google:        opts.Google,
		hub:           opts.Hub,
		clock:         clk,
		health:        opts.Health,
		scheduler:     opts.Scheduler,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no origin.
				return origin == "" || allowed[origin]
			},
		},
		clientURL:    opts.ClientURL,
		cookieDomain: opts.CookieDomain,
		cookieSecure: opts.CookieSecure,
		tokenTTL:     opts.TokenTTL,
	}
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if h.cookieSecure {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   maxAge,
		Secure:   h.cookieSecure,
		HttpOnly: true,
		SameSite: sameSite,
	})
}
