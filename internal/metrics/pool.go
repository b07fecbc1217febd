package metrics

import "github.com/prometheus/client_golang/prometheus"

// PoolStatFunc reports connection pool usage without importing pgxpool.
type PoolStatFunc func() (total, idle, acquired int32)

type poolCollector struct {
	stat PoolStatFunc

	totalDesc    *prometheus.Desc
	idleDesc     *prometheus.Desc
	acquiredDesc *prometheus.Desc
}

// RegisterPoolCollector exposes Postgres pool gauges, read at scrape time.
func (m *Metrics) RegisterPoolCollector(stat PoolStatFunc) {
	m.registry.MustRegister(&poolCollector{
		stat:         stat,
		totalDesc:    prometheus.NewDesc("ebr_db_pool_total_conns", "Connections in the Postgres pool.", nil, nil),
		idleDesc:     prometheus.NewDesc("ebr_db_pool_idle_conns", "Idle connections in the Postgres pool.", nil, nil),
		acquiredDesc: prometheus.NewDesc("ebr_db_pool_acquired_conns", "Acquired connections in the Postgres pool.", nil, nil),
	})
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalDesc
	ch <- c.idleDesc
	ch <- c.acquiredDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	total, idle, acquired := c.stat()
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(total))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(idle))
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(acquired))
}
