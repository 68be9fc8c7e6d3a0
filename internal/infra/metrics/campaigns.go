package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(campaignItemsTotal, campaignRendersTotal, retriesTotal) }

var campaignItemsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "campaign_items_total",
		Help: "Total campaign items that reached a terminal status for a pass.",
	},
	[]string{"status"}, // 'completed', 'failed', 'video_failed'
)

var campaignRendersTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "campaign_renders_total",
		Help: "Final render attempts, labeled by outcome.",
	},
	[]string{"success"},
)

var retriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "campaign_item_retries_total",
		Help: "Items re-attempted by the retry engine, labeled by outcome.",
	},
	[]string{"success"},
)

func IncCampaignItem(status string) {
	campaignItemsTotal.WithLabelValues(norm(status)).Inc()
}

func IncRender(ok bool) {
	campaignRendersTotal.WithLabelValues(boolLabel(ok)).Inc()
}

func IncRetry(ok bool) {
	retriesTotal.WithLabelValues(boolLabel(ok)).Inc()
}

func boolLabel(ok bool) string {
	if ok {
		return "true"
	}
	return "false"
}
