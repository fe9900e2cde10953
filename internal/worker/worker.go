package worker

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nfe-bridge/internal/config"
	"nfe-bridge/internal/edits"
	"nfe-bridge/internal/metrics"
	"nfe-bridge/internal/nfe"
	"nfe-bridge/internal/queue"
	"nfe-bridge/internal/storage"
	"nfe-bridge/internal/wms"
)

// Worker é o caminho sem operador: XML que cai no diretório de entrada
// é extraído e enviado ao WMS do jeito que veio (conjunto de edições em
// branco, cliente = destinatário da nota). O resultado fica na tabela
// envio quando há banco configurado.
type Worker struct {
	cfg      *config.Config
	db       *sql.DB
	wmsCli   *wms.Client
	interval time.Duration

	rmq *queue.RabbitMQ
}

func New(cfg *config.Config, db *sql.DB) *Worker {
	w := &Worker{
		cfg:      cfg,
		db:       db,
		wmsCli:   wms.New(cfg.WMSURLCadastro, cfg.WMSURLRecebimento, cfg.WMSURLRelay, cfg.WMSToken, cfg.WMSTokenHeader),
		interval: 2 * time.Second,
	}

	if queue.Enabled() {
		rmq, err := queue.NewFromEnv()
		if err != nil {
			slog.Error("erro criando cliente RabbitMQ no worker; caindo para modo polling",
				"err", err,
			)
		} else {
			w.rmq = rmq
			slog.Info("RabbitMQ habilitado no worker")
		}
	} else {
		slog.Info("fila RabbitMQ desabilitada no worker (NFE_BRIDGE_QUEUE_BACKEND != rabbitmq)")
	}

	return w
}

func (w *Worker) Run(ctx context.Context) error {
	// garante diretórios
	dirs := []string{
		w.cfg.ProcessingDir,
		w.cfg.ProcessedDir,
		w.cfg.FailedDir,
		w.cfg.IgnoredDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}

	if w.rmq != nil {
		defer w.rmq.Close()
		slog.Info("worker rodando em modo fila (RabbitMQ)",
			"processing_dir", w.cfg.ProcessingDir,
		)
		return w.rmq.ConsumeJobs(ctx, func(job queue.Job) error {
			return w.handleJob(ctx, job)
		})
	}

	slog.Info("worker rodando em modo polling de diretório",
		"processing_dir", w.cfg.ProcessingDir,
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("contexto cancelado, encerrando worker")
			return ctx.Err()
		case <-ticker.C:
			w.processProcessingFolder(ctx)
		}
	}
}

func (w *Worker) handleJob(ctx context.Context, job queue.Job) error {
	info, err := os.Stat(job.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("arquivo do job não existe mais, ignorando",
				"path", job.Path,
				"filename", job.Filename,
			)
			return nil
		}
		slog.Error("erro ao stat arquivo do job",
			"path", job.Path,
			"err", err,
		)
		return nil
	}
	if info.IsDir() {
		return nil
	}

	w.processXML(ctx, job.Path, job.Filename)
	return nil
}

func (w *Worker) processProcessingFolder(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.ProcessingDir)
	if err != nil {
		slog.Error("erro lendo diretório processing", "dir", w.cfg.ProcessingDir, "err", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filename := entry.Name()
		if strings.ToLower(filepath.Ext(filename)) != ".xml" {
			srcPath := filepath.Join(w.cfg.ProcessingDir, filename)
			slog.Info("extensão não tratada em processing; movendo para ignored",
				"path", srcPath,
			)
			w.moveTo(w.cfg.IgnoredDir, srcPath, filename)
			continue
		}

		w.processXML(ctx, filepath.Join(w.cfg.ProcessingDir, filename), filename)
	}
}

// processXML roda o pipeline completo de uma NF-e: parse → extração →
// payloads → envio sequencial ao WMS → auditoria → movimentação.
func (w *Worker) processXML(ctx context.Context, srcPath, filename string) {
	start := time.Now()
	status := "success"

	defer func() {
		metrics.ObserveCiclo(status, "fila", time.Since(start))
	}()

	raw, err := os.ReadFile(srcPath)
	if err != nil {
		status = "read_error"
		slog.Error("erro lendo XML", "path", srcPath, "err", err)
		w.moveTo(w.cfg.FailedDir, srcPath, filename)
		return
	}

	doc, err := nfe.Parse(raw)
	if err != nil {
		status = "parse_error"
		metrics.ObserveIngest(status, "fila")
		slog.Error("erro ao parsear XML",
			"path", srcPath,
			"err", err,
		)
		w.moveTo(w.cfg.FailedDir, srcPath, filename)
		return
	}

	nota, err := nfe.Extract(doc)
	if err != nil {
		status = "missing_field"
		metrics.ObserveIngest(status, "fila")
		slog.Error("NF-e sem campo obrigatório",
			"path", srcPath,
			"err", err,
		)
		w.moveTo(w.cfg.FailedDir, srcPath, filename)
		return
	}
	metrics.ObserveIngest("success", "fila")

	// Sem operador não há edição: conjunto em branco reproduz a nota
	// original campo a campo.
	efetiva, err := edits.Apply(*nota, edits.Blank(nota))
	if err != nil {
		status = "edit_error"
		slog.Error("erro aplicando edições em branco", "path", srcPath, "err", err)
		w.moveTo(w.cfg.FailedDir, srcPath, filename)
		return
	}

	w.avisaReenvio(nota)

	cgcCliente := nfe.FormatDocumento(nota.DestCNPJCPF)
	if nfe.DocumentoSuspeito(nota.DestCNPJCPF) {
		slog.Warn("documento do destinatário com tamanho atípico, completado com zeros",
			"path", srcPath,
			"dest_cnpj_cpf", nota.DestCNPJCPF,
		)
	}

	err = w.wmsCli.SubmitNota(ctx, cgcCliente, efetiva, time.Now())
	status = classificaEnvio(err)
	w.registraEnvio(nota, cgcCliente, status, err)

	if err != nil {
		slog.Error("falha no envio ao WMS",
			"path", srcPath,
			"numero", nota.Numero,
			"chave", nota.ChaveAcesso,
			"err", err,
		)
		w.moveTo(w.cfg.FailedDir, srcPath, filename)
		return
	}

	slog.Info("NF-e enviada ao WMS com sucesso",
		"path", srcPath,
		"numero", nota.Numero,
		"chave", nota.ChaveAcesso,
		"itens", len(nota.Itens),
	)
	w.moveTo(w.cfg.ProcessedDir, srcPath, filename)
}

func classificaEnvio(err error) string {
	if err == nil {
		return "success"
	}
	var formatErr *wms.ResponseFormatError
	if errors.As(err, &formatErr) {
		return "format_error"
	}
	return "transport_error"
}

// avisaReenvio loga quando a chave já teve envio com sucesso registrado.
// O reenvio segue normalmente (o WMS é quem decide o que fazer com a
// duplicata), mas o aviso ajuda a investigar nota caindo duas vezes no
// diretório.
func (w *Worker) avisaReenvio(nota *nfe.NotaFiscal) {
	if w.db == nil || nota.ChaveAcesso == "" {
		return
	}

	anteriores, err := storage.UltimosEnvios(w.db, nota.ChaveAcesso, 1)
	if err != nil {
		slog.Error("erro consultando envios anteriores", "chave", nota.ChaveAcesso, "err", err)
		return
	}
	if len(anteriores) > 0 && anteriores[0].Status == "success" {
		slog.Warn("NF-e já enviada ao WMS antes, reenviando mesmo assim",
			"chave", nota.ChaveAcesso,
			"numero", nota.Numero,
			"envio_anterior", anteriores[0].EnviadoEm,
		)
	}
}

// registraEnvio grava a auditoria quando há banco; falha de banco não
// interrompe o fluxo.
func (w *Worker) registraEnvio(nota *nfe.NotaFiscal, cgcCliente, status string, cause error) {
	if w.db == nil {
		return
	}

	detalhe := ""
	etapa := "completo"
	if cause != nil {
		detalhe = cause.Error()
		var transpErr *wms.TransportError
		var formatErr *wms.ResponseFormatError
		switch {
		case errors.As(cause, &transpErr):
			etapa = transpErr.Etapa
		case errors.As(cause, &formatErr):
			etapa = formatErr.Etapa
		}
	}

	err := storage.SaveEnvio(w.db, storage.Envio{
		ChaveAcesso: nota.ChaveAcesso,
		Numero:      nota.Numero,
		Serie:       nota.Serie,
		CgcCliente:  cgcCliente,
		Origem:      "fila",
		Etapa:       etapa,
		Status:      status,
		Detalhe:     detalhe,
		EnviadoEm:   time.Now(),
	})
	if err != nil {
		slog.Error("erro registrando envio no banco", "numero", nota.Numero, "err", err)
	}
}

func (w *Worker) moveTo(destDir, srcPath, filename string) {
	destPath := filepath.Join(destDir, filename)
	if err := os.Rename(srcPath, destPath); err != nil {
		slog.Error("erro movendo arquivo",
			"src", srcPath,
			"dest", destPath,
			"err", err,
		)
		return
	}
	slog.Info("arquivo movido",
		"src", srcPath,
		"dest", destPath,
	)
}
