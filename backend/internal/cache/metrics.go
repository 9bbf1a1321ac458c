package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	tierMemory  = "memory"
	tierBackend = "backend"

	reasonAbsent       = "absent"
	reasonExpired      = "expired"
	reasonBackendError = "backend_error"
)

var (
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_cache_hits_total",
			Help: "Cache hits by the tier that served them",
		},
		[]string{"tier"},
	)

	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_cache_misses_total",
			Help: "Cache misses by reason",
		},
		[]string{"reason"},
	)

	cacheBackendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_cache_backend_errors_total",
			Help: "Persistent cache tier failures by operation",
		},
		[]string{"op"},
	)
)
