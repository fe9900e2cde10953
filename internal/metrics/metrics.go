package metrics

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	nfeIngest = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nfe_ingest_total",
			Help: "Quantidade de NF-e carregadas, por status e origem (api/fila).",
		},
		[]string{"status", "origem"}, // status: success|parse_error|missing_field, origem: api|fila
	)

	wmsEnvio = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wms_envio_total",
			Help: "Quantidade de envios ao WMS, por etapa e status.",
		},
		[]string{"etapa", "status"}, // etapa: cadproduto|recebimento|relay, status: success|transport_error|format_error
	)

	envioDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wms_envio_duration_seconds",
			Help:    "Tempo do ciclo completo de envio de uma NF-e em segundos.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "origem"},
	)
)

// Init registra as métricas no registry global.
func Init() {
	prometheus.MustRegister(nfeIngest, wmsEnvio, envioDuration)
}

// ObserveIngest registra o resultado da carga de uma NF-e.
func ObserveIngest(status, origem string) {
	nfeIngest.With(prometheus.Labels{
		"status": status,
		"origem": origem,
	}).Inc()
}

// ObserveEnvio registra o resultado de uma etapa de envio ao WMS.
func ObserveEnvio(etapa, status string) {
	wmsEnvio.With(prometheus.Labels{
		"etapa":  etapa,
		"status": status,
	}).Inc()
}

// ObserveCiclo registra a duração do ciclo completo de envio.
func ObserveCiclo(status, origem string, d time.Duration) {
	envioDuration.With(prometheus.Labels{
		"status": status,
		"origem": origem,
	}).Observe(d.Seconds())
}

// StartHTTPServer sobe um /metrics na porta indicada (ex: ":9101").
func StartHTTPServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		slog.Info("iniciando servidor de métricas Prometheus", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("erro no servidor de métricas", "addr", addr, "err", err)
		}
	}()
}
