package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		creditsGrantedTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by status (initiated/succeeded/failed).",
		},
		[]string{"status"},
	)

	creditsGrantedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_granted_total",
			Help: "Credits granted through settled checkouts, bonus included.",
		},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddCreditsGranted(credits int64) {
	creditsGrantedTotal.Add(float64(credits))
}
