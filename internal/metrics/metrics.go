package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    operationsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdftoolkit",
            Name:      "operations_total",
            Help:      "Total operations by kind (merge, split, remove) and result",
        },
        []string{"op", "result"},
    )

    operationDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "pdftoolkit",
            Name:      "operation_duration_seconds",
            Help:      "Duration of operations by kind",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"op"},
    )

    pagesCopied = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdftoolkit",
            Name:      "pages_copied_total",
            Help:      "Total pages copied into output documents",
        },
    )

    batchesTotal = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdftoolkit",
            Name:      "assembly_batches_total",
            Help:      "Total assembly batches processed",
        },
    )

    readRetries = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdftoolkit",
            Name:      "source_read_retries_total",
            Help:      "Total retried source reads",
        },
    )

    inflightOps = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "pdftoolkit",
            Name:      "operations_in_flight",
            Help:      "Operations currently assembling",
        },
    )

    outputBytes = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "pdftoolkit",
            Name:      "output_document_bytes",
            Help:      "Size of produced output documents",
            Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
        },
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(operationsTotal, operationDuration, pagesCopied, batchesTotal, readRetries, inflightOps, outputBytes)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveOperation(op, result string, dur time.Duration) {
    operationsTotal.WithLabelValues(op, result).Inc()
    operationDuration.WithLabelValues(op).Observe(dur.Seconds())
}

func AddPagesCopied(n int)    { pagesCopied.Add(float64(n)) }
func IncBatch()               { batchesTotal.Inc() }
func IncReadRetry()           { readRetries.Inc() }
func OpStarted()              { inflightOps.Inc() }
func OpFinished()             { inflightOps.Dec() }
func ObserveOutputSize(n int) { outputBytes.Observe(float64(n)) }
