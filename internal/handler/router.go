package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/resp"
)

const (
	SocketRate  = 2
	SocketBurst = 20
	UploadRate  = 0.5
	UploadBurst = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It configures CORS and the global middleware, and mounts the socket, upload,
// metrics and static routes behind the limiters carried by deps.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":  "ok",
			"service": "Chat Relay",
			"hub":     deps.Hub.Stats(),
		}
		resp.RespondSuccess(w, r, data)
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.With(deps.UploadLimiter.Middleware).Post("/upload", HandleUpload(deps))
	r.Get("/uploads/{filename}", HandleDownload(deps))

	r.Get("/socket", HandleWebSocket(wsUpgrader, deps.SocketLimiter, deps))

	if deps.Config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(deps.Config.StaticDir)))
	}

	return r
}
