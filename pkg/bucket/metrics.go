package bucket

import (
	"errors"

	"github.com/LeeDigitalWorks/clusterbucket/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Operations counts remote bucket operations by outcome
	Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clusterbucket",
		Subsystem: "bucket",
		Name:      "operations_total",
		Help:      "Total number of bucket operations",
	}, []string{"operation", "result"}) // result: "ok", "error", "not_found"

	// UploadedBytes tracks bytes written through UploadFile
	UploadedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "clusterbucket",
		Subsystem: "bucket",
		Name:      "uploaded_bytes_total",
		Help:      "Bytes uploaded to the artifact directory",
	})
)

func init() {
	debug.Registry().MustRegister(Operations, UploadedBytes)
}

func observe(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if errors.Is(err, ErrNotFound) {
			result = "not_found"
		}
	}
	Operations.WithLabelValues(operation, result).Inc()
}
