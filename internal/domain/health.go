package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// ViewMetrics is returned by GET /v1/metrics/views.
type ViewMetrics struct {
	ViewsServed      int64            `json:"viewsServed"`
	Unauthenticated  int64            `json:"unauthenticated"`
	AggregationFails int64            `json:"aggregationFailures"`
	Degraded         int64            `json:"degraded"`
	FetchErrors      map[string]int64 `json:"fetchErrors"`
	CacheHitRate     float64          `json:"cacheHitRate"`
	Period           string           `json:"period"`
}
