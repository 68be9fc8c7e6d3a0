package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(accountUsage, capacityExhaustions) }

var accountUsage = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "account_daily_usage",
		Help: "Videos generated today per account.",
	},
	[]string{"account"},
)

var capacityExhaustions = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "capacity_exhaustions_total",
		Help: "Passes aborted because no account had remaining daily quota.",
	},
)

func SetAccountUsage(accountID, usage int) {
	accountUsage.WithLabelValues(strconv.Itoa(accountID)).Set(float64(usage))
}

func IncCapacityExhausted() {
	capacityExhaustions.Inc()
}
