package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	queueTasksDesc = prometheus.NewDesc(
		"queue_tasks",
		"Tasks in the queue grouped by state",
		[]string{"queue", "state"}, nil,
	)
	queueLatencyDesc = prometheus.NewDesc(
		"queue_latency_seconds",
		"Age of the oldest pending task",
		[]string{"queue"}, nil,
	)
)

// Collector reports asynq queue depth on every scrape.
type Collector struct {
	Inspector Inspector
	Queues    []string
	Logger    zerolog.Logger
}

func (c Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- queueTasksDesc
	ch <- queueLatencyDesc
}

func (c Collector) Collect(ch chan<- prometheus.Metric) {
	queues := c.Queues
	if len(queues) == 0 {
		queues = []string{DefaultQueue}
	}
	for _, q := range queues {
		info, err := c.Inspector.GetQueueInfo(q)
		if err != nil {
			c.Logger.Debug().Err(err).Str("queue", q).Msg("queue metrics unavailable")
			continue
		}
		for state, n := range map[string]int{
			"pending":   info.Pending,
			"active":    info.Active,
			"scheduled": info.Scheduled,
			"retry":     info.Retry,
			"archived":  info.Archived,
		} {
			ch <- prometheus.MustNewConstMetric(queueTasksDesc, prometheus.GaugeValue, float64(n), q, state)
		}
		ch <- prometheus.MustNewConstMetric(queueLatencyDesc, prometheus.GaugeValue, info.Latency.Seconds(), q)
	}
}
