package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colloquy_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// ModerationOutcomes counts classification results by terminal status.
	ModerationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colloquy_moderation_outcomes_total",
		Help: "Comment classifications by resulting moderation status",
	}, []string{"status"})

	// RateLimitRejections counts rejected actions by action type and the
	// layer that rejected them (fast, durable, blocked).
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colloquy_rate_limit_rejections_total",
		Help: "Rate-limited actions by action type and rejecting layer",
	}, []string{"action", "layer"})

	// NotificationsDispatched counts persisted notification records by kind.
	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colloquy_notifications_dispatched_total",
		Help: "Notifications dispatched by kind",
	}, []string{"kind"})

	// CommentsSubmitted counts accepted comment submissions by root/reply.
	CommentsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colloquy_comments_submitted_total",
		Help: "Accepted comment submissions",
	}, []string{"kind"})
)

// InitMetrics returns the fiberprometheus middleware for HTTP metrics.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}
