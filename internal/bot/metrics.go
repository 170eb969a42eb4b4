package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	MessagesProcessed    prometheus.Counter
	CommandsProcessed    prometheus.Counter
	UpdatesTotal         *prometheus.CounterVec
	ErrorsTotal          prometheus.Counter
	UpdateProcessingTime prometheus.Histogram
	DroppedUpdates       prometheus.Counter
	RateLimited          prometheus.Counter
	PhotoFallbacks       prometheus.Counter
	BookingsCreated      *prometheus.CounterVec
	BookingFailures      prometheus.Counter
	BookingDuration      prometheus.Histogram
}

// NewMetrics registers the bot collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MessagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "salon_bot_messages_processed_total",
			Help: "Total number of messages processed",
		}),
		CommandsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "salon_bot_commands_processed_total",
			Help: "Total number of commands processed",
		}),
		UpdatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_bot_updates_total",
			Help: "Updates handled by kind",
		}, []string{"kind"}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "salon_bot_errors_total",
			Help: "Panics recovered in update handlers",
		}),
		UpdateProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "salon_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),
		DroppedUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "salon_bot_dropped_updates_total",
			Help: "Updates dropped because the user mailbox was full",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "salon_bot_rate_limited_total",
			Help: "Updates rejected by the per-user rate limit",
		}),
		PhotoFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "salon_bot_photo_fallbacks_total",
			Help: "Salon cards sent as text after photo delivery failed",
		}),
		BookingsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_bot_bookings_created_total",
			Help: "Total number of bookings created",
		}, []string{"service"}),
		BookingFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "salon_bot_booking_failures_total",
			Help: "Booking transactions that failed",
		}),
		BookingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "salon_bot_booking_duration_seconds",
			Help:    "Time spent creating a booking",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
