package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ledgerTransactionsTotal,
		ledgerDeductDeniedTotal,
		accountsTotal,
	)
}

var (
	ledgerTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Committed ledger entries by type (purchase/usage/bonus).",
		},
		[]string{"type"},
	)

	ledgerDeductDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_deduct_denied_total",
			Help: "Deductions refused for insufficient balance.",
		},
	)

	accountsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "accounts_total",
			Help: "Provisioned accounts, refreshed on each health check.",
		},
	)
)

func IncLedgerTransaction(typ string) {
	ledgerTransactionsTotal.WithLabelValues(norm(typ)).Inc()
}

func IncDeductDenied() {
	ledgerDeductDeniedTotal.Inc()
}

func SetAccountsTotal(n int) {
	accountsTotal.Set(float64(n))
}
