package metrics

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Summary is the JSON body of the metrics summary endpoint.
type Summary struct {
	HTTP       httpSummary       `json:"http"`
	Backend    backendSummary    `json:"backend"`
	Onboarding onboardingSummary `json:"onboarding"`
	RateLimit  rateLimitInfo     `json:"rateLimit"`
	Journal    journalInfo       `json:"journal"`
	DB         dbInfo            `json:"db"`
	Server     serverInfo        `json:"server"`
}

type httpSummary struct {
	TotalRequests float64 `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
	P50Latency    float64 `json:"p50Latency"`
	P95Latency    float64 `json:"p95Latency"`
	P99Latency    float64 `json:"p99Latency"`
}

type backendSummary struct {
	TotalCalls      float64 `json:"totalCalls"`
	ErrorRate       float64 `json:"errorRate"`
	TransportErrors float64 `json:"transportErrors"`
	P50Latency      float64 `json:"p50Latency"`
	P95Latency      float64 `json:"p95Latency"`
}

type onboardingSummary struct {
	ActiveConsoles     float64 `json:"activeConsoles"`
	Transitions        float64 `json:"transitions"`
	Logins             float64 `json:"logins"`
	Registrations      float64 `json:"registrations"`
	Payments           float64 `json:"payments"`
	CompaniesAdded     float64 `json:"companiesAdded"`
	Expirations        float64 `json:"expirations"`
	ValidationFailures float64 `json:"validationFailures"`
}

type rateLimitInfo struct {
	Rejections float64 `json:"rejections"`
}

type journalInfo struct {
	TotalFlushes float64 `json:"totalFlushes"`
	FlushErrors  float64 `json:"flushErrors"`
	Events       float64 `json:"events"`
}

type dbInfo struct {
	TotalConns    float64 `json:"totalConns"`
	IdleConns     float64 `json:"idleConns"`
	AcquiredConns float64 `json:"acquiredConns"`
}

type serverInfo struct {
	StartTime     float64 `json:"startTime"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// Handler serves a JSON summary computed from the gathered families.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := m.Summarize()
		if err != nil {
			http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store")
		_ = json.NewEncoder(w).Encode(summary)
	}
}

// Summarize gathers the registry into a Summary.
func (m *Metrics) Summarize() (*Summary, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	fam := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		fam[f.GetName()] = f
	}

	httpReqs := fam["ebr_http_requests_total"]
	httpDur := fam["ebr_http_request_duration_seconds"]
	calls := fam["ebr_backend_calls_total"]
	callDur := fam["ebr_backend_call_duration_seconds"]
	transitions := fam["ebr_onboarding_transitions_total"]
	start := gaugeValue(fam["ebr_server_start_time_seconds"])

	return &Summary{
		HTTP: httpSummary{
			TotalRequests: sumCounter(httpReqs, nil),
			ErrorRate:     errorRate(httpReqs),
			P50Latency:    histogramPercentile(httpDur, 0.50),
			P95Latency:    histogramPercentile(httpDur, 0.95),
			P99Latency:    histogramPercentile(httpDur, 0.99),
		},
		Backend: backendSummary{
			TotalCalls:      sumCounter(calls, nil),
			ErrorRate:       errorRate(calls),
			TransportErrors: sumCounter(calls, labelIs("status_code", "0")),
			P50Latency:      histogramPercentile(callDur, 0.50),
			P95Latency:      histogramPercentile(callDur, 0.95),
		},
		Onboarding: onboardingSummary{
			ActiveConsoles:     gaugeValue(fam["ebr_active_consoles"]),
			Transitions:        sumCounter(transitions, nil),
			Logins:             sumCounter(transitions, labelIs("event", "login")),
			Registrations:      sumCounter(transitions, labelIs("event", "submit_registration")),
			Payments:           sumCounter(transitions, labelIs("event", "submit_payment")),
			CompaniesAdded:     sumCounter(transitions, labelIs("event", "submit_company")),
			Expirations:        sumCounter(transitions, labelIs("event", "session_expired")),
			ValidationFailures: sumCounter(fam["ebr_validation_failures_total"], nil),
		},
		RateLimit: rateLimitInfo{
			Rejections: sumCounter(fam["ebr_ratelimit_rejections_total"], nil),
		},
		Journal: journalInfo{
			TotalFlushes: sumCounter(fam["ebr_journal_flushes_total"], nil),
			FlushErrors:  sumCounter(fam["ebr_journal_flushes_total"], labelIs("status", "error")),
			Events:       sumCounter(fam["ebr_journal_events_total"], nil),
		},
		DB: dbInfo{
			TotalConns:    gaugeValue(fam["ebr_db_pool_total_conns"]),
			IdleConns:     gaugeValue(fam["ebr_db_pool_idle_conns"]),
			AcquiredConns: gaugeValue(fam["ebr_db_pool_acquired_conns"]),
		},
		Server: serverInfo{
			StartTime:     start,
			UptimeSeconds: float64(time.Now().Unix()) - start,
		},
	}, nil
}

// --- Prometheus metric helpers ---

type matcher func(*dto.Metric) bool

func labelIs(name, value string) matcher {
	return func(m *dto.Metric) bool {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == name && lp.GetValue() == value {
				return true
			}
		}
		return false
	}
}

func sumCounter(f *dto.MetricFamily, match matcher) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() == nil || (match != nil && !match(m)) {
			continue
		}
		total += m.GetCounter().GetValue()
	}
	return total
}

func gaugeValue(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	ms := f.GetMetric()
	if len(ms) == 0 || ms[0].GetGauge() == nil {
		return 0
	}
	return ms[0].GetGauge().GetValue()
}

// errorRate is the share of counts whose status_code label is 4xx, 5xx or
// 0 (no response).
func errorRate(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total, errors float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() == nil {
			continue
		}
		v := m.GetCounter().GetValue()
		total += v
		for _, lp := range m.GetLabel() {
			if lp.GetName() != "status_code" {
				continue
			}
			code := lp.GetValue()
			if code == "0" || (len(code) > 0 && code[0] >= '4') {
				errors += v
			}
		}
	}
	if total == 0 {
		return 0
	}
	return errors / total
}

// histogramPercentile computes a percentile from aggregated histogram buckets
// using linear interpolation.
func histogramPercentile(f *dto.MetricFamily, q float64) float64 {
	if f == nil {
		return 0
	}

	type bucket struct {
		upperBound      float64
		cumulativeCount uint64
	}
	var totalCount uint64
	bucketMap := make(map[float64]uint64)

	for _, m := range f.GetMetric() {
		h := m.GetHistogram()
		if h == nil {
			continue
		}
		totalCount += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			bucketMap[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if totalCount == 0 {
		return 0
	}

	buckets := make([]bucket, 0, len(bucketMap))
	for ub, count := range bucketMap {
		buckets = append(buckets, bucket{upperBound: ub, cumulativeCount: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].upperBound < buckets[j].upperBound
	})

	rank := q * float64(totalCount)

	var prevBound float64
	var prevCount uint64
	for _, b := range buckets {
		if math.IsInf(b.upperBound, 1) {
			break
		}
		if float64(b.cumulativeCount) >= rank {
			bucketCount := b.cumulativeCount - prevCount
			if bucketCount == 0 {
				return b.upperBound
			}
			fraction := (rank - float64(prevCount)) / float64(bucketCount)
			return prevBound + fraction*(b.upperBound-prevBound)
		}
		prevBound = b.upperBound
		prevCount = b.cumulativeCount
	}

	// Beyond every finite bound: report the largest one.
	for i := len(buckets) - 1; i >= 0; i-- {
		if !math.IsInf(buckets[i].upperBound, 1) {
			return buckets[i].upperBound
		}
	}
	return 0
}
