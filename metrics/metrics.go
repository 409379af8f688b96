package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	providerCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medassist_provider_calls_total",
		Help: "Inference provider calls by outcome (ok/error)",
	}, []string{"provider", "outcome"})

	providerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "medassist_provider_latency_ms",
		Help:    "Latency of inference provider calls in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
	}, []string{"provider"})

	rateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medassist_rate_limited_total",
		Help: "Admissions denied by a provider rate limiter",
	}, []string{"provider"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medassist_cache_lookups_total",
		Help: "Response cache lookups (hit/miss)",
	}, []string{"result"})

	fallbackLayer = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medassist_fallback_layer_total",
		Help: "Fallback responder answers by layer",
	}, []string{"layer"})

	retrieverLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "medassist_retriever_latency_ms",
		Help:    "Latency of retriever calls in milliseconds",
		Buckets: []float64{10, 25, 50, 75, 100, 150, 200, 300, 500, 800, 1200},
	}, []string{"type"})

	retrieverResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "medassist_retriever_results",
		Help:    "Number of results returned by a retriever",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"type"})

	fusionLists = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "medassist_fusion_input_lists",
		Help:    "Number of lists fused per query",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 8},
	})

	pipelineBranch = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medassist_pipeline_branch_total",
		Help: "RAG pipeline branch taken per query",
	}, []string{"branch"})

	relevanceVerdict = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medassist_relevance_verdict_total",
		Help: "Relevance verdicts of RAG answers",
	}, []string{"verdict"})

	httpRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "medassist_http_request_duration_ms",
		Help:    "HTTP API latency in milliseconds by route and status code",
		Buckets: []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 15000, 60000},
	}, []string{"route", "code"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}

// ObserveProvider records one provider call.
func ObserveProvider(name string, start time.Time, err error) {
	ensureRegistered()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	providerCalls.WithLabelValues(name, outcome).Inc()
	providerLatency.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
}

// IncRateLimited counts a denied admission.
func IncRateLimited(name string) {
	ensureRegistered()
	rateLimited.WithLabelValues(name).Inc()
}

// IncCache counts a response cache lookup.
func IncCache(hit bool) {
	ensureRegistered()
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// IncFallback records which fallback layer produced the answer.
func IncFallback(layer string) {
	ensureRegistered()
	fallbackLayer.WithLabelValues(layer).Inc()
}

// ObserveRetriever records latency and result size for a retriever type.
func ObserveRetriever(typ string, start time.Time, results int) {
	ensureRegistered()
	dur := time.Since(start).Milliseconds()
	retrieverLatency.WithLabelValues(typ).Observe(float64(dur))
	retrieverResults.WithLabelValues(typ).Observe(float64(results))
}

// ObserveFusion records how many lists were fused.
func ObserveFusion(n int) {
	ensureRegistered()
	fusionLists.Observe(float64(n))
}

func IncPipelineBranch(branch string) {
	ensureRegistered()
	pipelineBranch.WithLabelValues(branch).Inc()
}

func IncRelevance(verdict string) {
	ensureRegistered()
	relevanceVerdict.WithLabelValues(verdict).Inc()
}

// ObserveHTTP records one API request against its route template.
func ObserveHTTP(route string, code int, start time.Time) {
	ensureRegistered()
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Observe(float64(time.Since(start).Milliseconds()))
}

// Collectors exposes all collectors for external registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		providerCalls, providerLatency, rateLimited, cacheLookups, fallbackLayer,
		retrieverLatency, retrieverResults, fusionLists, pipelineBranch, relevanceVerdict,
		httpRequests,
	}
}

// Register adds the collectors to the default prometheus registry once.
func Register() {
	ensureRegistered()
}
