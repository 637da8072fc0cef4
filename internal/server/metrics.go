package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chunksIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursebuddy_chunks_indexed_total",
		Help: "Chunks embedded and upserted across all ingestion runs.",
	})
	ingestionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursebuddy_ingestion_failures_total",
		Help: "Ingestion runs that ended in an error.",
	})
	chatExchanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursebuddy_chat_exchanges_total",
		Help: "Chat exchanges answered, fallbacks included.",
	})
	chatFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursebuddy_chat_fallbacks_total",
		Help: "Chat exchanges answered with the no-data fallback.",
	})
)
