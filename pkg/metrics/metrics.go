package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway Metrics
	GatewayReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecrypt_gateway_reads_total",
		Help: "The total number of blob reads from the contract gateway",
	}, []string{"backend", "key"})
	GatewayWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecrypt_gateway_writes_total",
		Help: "The total number of blob writes to the contract gateway",
	}, []string{"backend", "key"})
	GatewayErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecrypt_gateway_errors_total",
		Help: "The total number of failed gateway calls",
	}, []string{"backend", "op"})
	GatewayVersionConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecrypt_gateway_version_conflicts_total",
		Help: "The total number of conditional writes rejected because the blob changed",
	}, []string{"backend", "key"})
	GatewayWriteLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamecrypt_gateway_write_latency_seconds",
		Help:    "Latency of gateway setData calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	// Game Metrics
	PlayersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamecrypt_players_created_total",
		Help: "The total number of player records created",
	})
	PlayerCreateErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamecrypt_player_create_errors_total",
		Help: "The total number of failed player creations",
	})
	DecryptRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecrypt_decrypt_requests_total",
		Help: "Decrypt requests by outcome",
	}, []string{"outcome"})
	CollectionParseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecrypt_collection_parse_errors_total",
		Help: "Stored blobs that failed to parse and were treated as empty",
	}, []string{"key"})
	PlayersLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gamecrypt_players_loaded",
		Help: "Number of player records in the last successful load",
	})

	// Event Metrics
	EventsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamecrypt_events_published_total",
		Help: "The total number of events published to Kafka",
	})
	EventPublishErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamecrypt_event_publish_errors_total",
		Help: "The total number of errors occurred while publishing to Kafka",
	})
)
