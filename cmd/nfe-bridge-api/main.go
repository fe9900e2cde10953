package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"nfe-bridge/internal/config"
	"nfe-bridge/internal/logx"
	"nfe-bridge/internal/metrics"
	"nfe-bridge/internal/server"
	"nfe-bridge/internal/session"
	"nfe-bridge/internal/wms"
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
	slog.Info("[nfe-bridge-api] iniciando...")

	// inicia métricas Prometheus
	metrics.Init()
	metricsAddr := os.Getenv("NFE_BRIDGE_METRICS_ADDR_API")
	if metricsAddr == "" {
		metricsAddr = ":9102"
	}
	metrics.StartHTTPServer(metricsAddr)

	mgr := session.NewManager()
	wmsCli := wms.New(cfg.WMSURLCadastro, cfg.WMSURLRecebimento, cfg.WMSURLRelay, cfg.WMSToken, cfg.WMSTokenHeader)

	app := server.New(mgr, wmsCli)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("sinal recebido, encerrando API")
		if err := app.Shutdown(); err != nil {
			slog.Error("erro no shutdown da API", "err", err)
		}
	}()

	slog.Info("API interativa escutando", "addr", cfg.APIAddr)
	if err := app.Listen(cfg.APIAddr); err != nil {
		slog.Error("API finalizou com erro", "err", err)
		os.Exit(1)
	}

	slog.Info("[nfe-bridge-api] finalizado")
}
