package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	OTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_otp_requests_total",
			Help: "Total number of OTP challenge requests.",
		},
		[]string{"service", "result"},
	)

	OTPVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_otp_verifications_total",
			Help: "Total number of OTP verification attempts.",
		},
		[]string{"service", "result"},
	)

	SessionChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_session_checks_total",
			Help: "Total number of bearer-token validations.",
		},
		[]string{"service", "result"},
	)

	NotifierDispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_dispatches_total",
			Help: "Total number of OTP notifier dispatches.",
		},
		[]string{"service", "result"},
	)

	AnalysisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_requests_total",
			Help: "Total number of analysis operations.",
		},
		[]string{"service", "kind", "result"},
	)
)

func MustRegister(serviceName string) {
	HTTPRequestsTotal = HTTPRequestsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	HTTPRequestDurationSeconds = HTTPRequestDurationSeconds.MustCurryWith(prometheus.Labels{"service": serviceName}).(*prometheus.HistogramVec)
	OTPRequestsTotal = OTPRequestsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	OTPVerificationsTotal = OTPVerificationsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	SessionChecksTotal = SessionChecksTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	NotifierDispatchesTotal = NotifierDispatchesTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	AnalysisRequestsTotal = AnalysisRequestsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})

	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		OTPRequestsTotal,
		OTPVerificationsTotal,
		SessionChecksTotal,
		NotifierDispatchesTotal,
		AnalysisRequestsTotal,
	)
}
