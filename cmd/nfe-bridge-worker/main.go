package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"nfe-bridge/internal/config"
	"nfe-bridge/internal/logx"
	"nfe-bridge/internal/metrics"
	"nfe-bridge/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("erro carregando config", "err", err)
		os.Exit(1)
	}
	if err := cfg.ValidaWMS(); err != nil {
		slog.Error("configuração do WMS incompleta", "err", err)
		os.Exit(1)
	}

	logx.Init(cfg.LogLevel)
	slog.Info("[nfe-bridge-worker] iniciando...")

	// Banco é só auditoria de envio: sem ele o worker roda do mesmo jeito,
	// apenas sem registrar a tabela envio.
	var db *sql.DB
	conn, err := sql.Open("pgx", cfg.AppDSN())
	if err != nil {
		slog.Warn("erro abrindo conexão com banco da aplicação; seguindo sem auditoria", "err", err)
	} else if err := conn.Ping(); err != nil {
		slog.Warn("erro no ping ao banco da aplicação; seguindo sem auditoria", "err", err)
		conn.Close()
	} else {
		slog.Info("conectado ao banco da aplicação com sucesso")
		db = conn
		defer db.Close()
	}

	// inicia métricas Prometheus
	metrics.Init()
	metricsAddr := os.Getenv("NFE_BRIDGE_METRICS_ADDR_WORKER")
	if metricsAddr == "" {
		metricsAddr = ":9101"
	}
	metrics.StartHTTPServer(metricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.New(cfg, db)
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("worker finalizou com erro", "err", err)
		os.Exit(1)
	}

	slog.Info("[nfe-bridge-worker] finalizado")
}
