package models

import "time"

// SystemMetrics is a lightweight instrumentation snapshot served next to the Prometheus endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	RosterLoads              uint64    `json:"roster_loads"`
	RosterFallbacks          uint64    `json:"roster_fallbacks"`
	NotificationsDelivered   uint64    `json:"notifications_delivered"`
	NotificationsFailed      uint64    `json:"notifications_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
