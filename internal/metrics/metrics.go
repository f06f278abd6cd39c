package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PurchasesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Number of completed purchases",
		},
	)

	AmountCreditedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "amount_credited_total",
			Help: "Sum of commission credited to referrers",
		},
	)

	PayoutApprovalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payout_approvals_total",
			Help: "Number of earnings transitioned to Approved",
		},
	)

	NotificationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Number of notifications that failed after retries",
		},
	)
)

func Register() {
	prometheus.MustRegister(PurchasesTotal, AmountCreditedTotal, PayoutApprovalsTotal, NotificationFailures)
}
