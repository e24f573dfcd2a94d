package cloudmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	recipesCreated      *prometheus.CounterVec
	importsProcessed    *prometheus.CounterVec
	invitationsAccepted *prometheus.CounterVec
	engineErrors        *prometheus.CounterVec
	booksTotal          prometheus.Gauge
	memoryBytes         prometheus.Gauge
}

func newMetrics(registry *prometheus.Registry) *metrics {
	recipesCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "platebook_cloud_recipes_created_total",
		Help: "Recipes created, by book and source.",
	}, []string{"book", "source"})

	importsProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "platebook_cloud_imports_processed_total",
		Help: "OCR imports processed, by book and outcome.",
	}, []string{"book", "status"})

	invitationsAccepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "platebook_cloud_invitations_accepted_total",
		Help: "Invitations accepted, by book.",
	}, []string{"book"})

	engineErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "platebook_cloud_engine_errors_total",
		Help: "Internal operation failures, by book and operation.",
	}, []string{"book", "operation"})

	booksTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "platebook_cloud_books_total",
		Help: "Number of recipe books on this instance.",
	})

	memoryBytes := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "platebook_cloud_memory_bytes",
		Help: "Memory obtained from the OS by this instance.",
	})

	registry.MustRegister(
		recipesCreated,
		importsProcessed,
		invitationsAccepted,
		engineErrors,
		booksTotal,
		memoryBytes,
	)

	return &metrics{
		recipesCreated:      recipesCreated,
		importsProcessed:    importsProcessed,
		invitationsAccepted: invitationsAccepted,
		engineErrors:        engineErrors,
		booksTotal:          booksTotal,
		memoryBytes:         memoryBytes,
	}
}
