package handler

import (
	"golang.org/x/time/rate"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/app/storage"
	"chatrelay/internal/configs"
	"chatrelay/internal/pkg/limiter"
	"chatrelay/internal/pkg/metrics"
)

// AppDeps bundles what the HTTP layer needs from the rest of the application.
type AppDeps struct {
	Hub     *chat.Hub
	Config  *configs.AppConfig
	Storage storage.Service
	Metrics *metrics.Metrics

	// Per-IP limiters for socket upgrades and uploads. The owner stops them.
	SocketLimiter *limiter.IPRateLimiter
	UploadLimiter *limiter.IPRateLimiter
}

// NewSocketLimiter returns the per-IP limiter for socket upgrades.
func NewSocketLimiter() *limiter.IPRateLimiter {
	return limiter.NewIPRateLimiter(rate.Limit(SocketRate), SocketBurst)
}

// NewUploadLimiter returns the per-IP limiter for uploads.
func NewUploadLimiter() *limiter.IPRateLimiter {
	return limiter.NewIPRateLimiter(rate.Limit(UploadRate), UploadBurst)
}
