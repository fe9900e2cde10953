package server

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"nfe-bridge/internal/edits"
	"nfe-bridge/internal/metrics"
	"nfe-bridge/internal/nfe"
	"nfe-bridge/internal/session"
	"nfe-bridge/internal/wms"
)

type erroResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NotaHandler expõe o fluxo interativo: carregar NF-e, revisar/editar
// itens, ajustar o cliente e disparar o envio.
type NotaHandler struct {
	mgr    *session.Manager
	wmsCli *wms.Client
}

func NewNotaHandler(mgr *session.Manager, wmsCli *wms.Client) *NotaHandler {
	return &NotaHandler{mgr: mgr, wmsCli: wmsCli}
}

// Upload carrega uma NF-e nova, descartando a sessão anterior inteira.
// POST /api/nfe (multipart "file" ou corpo XML cru)
func (h *NotaHandler) Upload(c *fiber.Ctx) error {
	raw, err := corpoXML(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(erroResponse{Code: "INVALID_BODY", Message: err.Error()})
	}

	s, err := h.mgr.Load(raw)
	if err != nil {
		var parseErr *nfe.ParseError
		var missErr *nfe.MissingFieldError
		switch {
		case errors.As(err, &parseErr):
			metrics.ObserveIngest("parse_error", "api")
			return c.Status(fiber.StatusUnprocessableEntity).JSON(erroResponse{Code: "PARSE_ERROR", Message: err.Error()})
		case errors.As(err, &missErr):
			metrics.ObserveIngest("missing_field", "api")
			return c.Status(fiber.StatusUnprocessableEntity).JSON(erroResponse{Code: "MISSING_FIELD", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(erroResponse{Code: "INTERNAL", Message: err.Error()})
	}

	metrics.ObserveIngest("success", "api")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"sessao":      s.ID,
		"resumo":      s.Nota.Resumo(),
		"itens":       itensJSON(s.Nota.Itens),
		"cgc_cliente": s.CgcCliente,
	})
}

// Consulta devolve a nota carregada, as edições correntes e o cliente.
// GET /api/nfe
func (h *NotaHandler) Consulta(c *fiber.Ctx) error {
	s, err := h.mgr.Atual()
	if err != nil {
		return respostaSemNota(c)
	}
	return c.JSON(fiber.Map{
		"sessao":      s.ID,
		"resumo":      s.Nota.Resumo(),
		"itens":       itensJSON(s.Nota.Itens),
		"edicoes":     s.Edicoes,
		"cgc_cliente": s.CgcCliente,
	})
}

// Edita substitui o conjunto de edições. A quantidade tem que bater com
// os itens da nota: correspondência posicional, sem inserir nem remover.
// PUT /api/nfe/itens
func (h *NotaHandler) Edita(c *fiber.Ctx) error {
	var eds []edits.ItemEdit
	if err := c.BodyParser(&eds); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(erroResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}

	if err := h.mgr.SetEdicoes(eds); err != nil {
		if errors.Is(err, session.ErrSemNota) {
			return respostaSemNota(c)
		}
		return c.Status(fiber.StatusBadRequest).JSON(erroResponse{Code: "EDIT_MISMATCH", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Cliente troca o identificador usado no envio (default: destinatário).
// PUT /api/nfe/cliente
func (h *NotaHandler) Cliente(c *fiber.Ctx) error {
	var in struct {
		CgcCliente string `json:"cgc_cliente"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(erroResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}

	if err := h.mgr.SetCgcCliente(in.CgcCliente); err != nil {
		return respostaSemNota(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Enviar dispara a sequência cadastro → recebimento com a nota efetiva
// (edições aplicadas). Falha deixa a sessão intacta pro usuário corrigir
// e tentar de novo.
// POST /api/nfe/enviar
func (h *NotaHandler) Enviar(c *fiber.Ctx) error {
	efetiva, cgcCliente, err := h.mgr.Efetiva()
	if err != nil {
		if errors.Is(err, session.ErrSemNota) {
			return respostaSemNota(c)
		}
		return c.Status(fiber.StatusBadRequest).JSON(erroResponse{Code: "EDIT_MISMATCH", Message: err.Error()})
	}

	start := time.Now()
	if err := h.wmsCli.SubmitNota(c.Context(), cgcCliente, efetiva, time.Now()); err != nil {
		return respostaFalhaEnvio(c, start, err)
	}

	metrics.ObserveEnvio("cadproduto", "success")
	metrics.ObserveEnvio("recebimento", "success")
	metrics.ObserveCiclo("success", "api", time.Since(start))

	slog.Info("NF-e enviada ao WMS pela API",
		"numero", efetiva.Numero,
		"chave", efetiva.ChaveAcesso,
		"cgc_cliente", cgcCliente,
	)
	return c.JSON(fiber.Map{"status": "OK"})
}

// Retransmitir manda o XML original, sem edição nenhuma, pro relay
// (modo antigo da integração).
// POST /api/nfe/retransmitir
func (h *NotaHandler) Retransmitir(c *fiber.Ctx) error {
	s, err := h.mgr.Atual()
	if err != nil {
		return respostaSemNota(c)
	}

	start := time.Now()
	if err := h.wmsCli.RelayXML(c.Context(), nfe.NomeArquivo(s.Nota), s.XMLRaw); err != nil {
		return respostaFalhaEnvio(c, start, err)
	}

	metrics.ObserveEnvio("relay", "success")
	metrics.ObserveCiclo("success", "api", time.Since(start))
	return c.JSON(fiber.Map{"status": "OK"})
}

// Download devolve o XML com as edições aplicadas, com o nome
// NF<numero>_<destinatário>.xml.
// GET /api/nfe/download
func (h *NotaHandler) Download(c *fiber.Ctx) error {
	s, err := h.mgr.Atual()
	if err != nil {
		return respostaSemNota(c)
	}

	efetiva, _, err := h.mgr.Efetiva()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(erroResponse{Code: "EDIT_MISMATCH", Message: err.Error()})
	}

	doc := s.Documento.Clone()
	if err := nfe.RewriteItens(doc, efetiva.Itens); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(erroResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out, err := doc.Bytes()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(erroResponse{Code: "INTERNAL", Message: err.Error()})
	}

	c.Attachment(nfe.NomeArquivo(s.Nota))
	c.Set(fiber.HeaderContentType, "text/xml; charset=utf-8")
	return c.Send(out)
}

// ── helpers ──────────────────────────────────────────────────────────

// corpoXML aceita upload multipart (campo "file") ou o XML direto no corpo.
func corpoXML(c *fiber.Ctx) ([]byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	body := c.Body()
	if len(body) == 0 {
		return nil, errors.New("corpo vazio: envie o XML da NF-e")
	}
	// c.Body() é reutilizado pelo fasthttp; copia antes de guardar
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

func itensJSON(itens []nfe.Item) []fiber.Map {
	out := make([]fiber.Map, 0, len(itens))
	for _, it := range itens {
		out = append(out, fiber.Map{
			"codigo":         it.Codigo,
			"descricao":      it.Descricao,
			"unidade":        it.Unidade,
			"quantidade":     it.Quantidade.String(),
			"valor_unitario": it.ValorUnitario.String(),
			"valor_total":    it.ValorTotal.String(),
			"ean":            it.EAN,
		})
	}
	return out
}

func respostaSemNota(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(erroResponse{
		Code:    "NO_INVOICE",
		Message: "nenhuma NF-e carregada; faça o upload primeiro",
	})
}

func respostaFalhaEnvio(c *fiber.Ctx, start time.Time, err error) error {
	var transpErr *wms.TransportError
	var formatErr *wms.ResponseFormatError

	switch {
	case errors.As(err, &formatErr):
		metrics.ObserveEnvio(formatErr.Etapa, "format_error")
		metrics.ObserveCiclo("format_error", "api", time.Since(start))
		return c.Status(fiber.StatusBadGateway).JSON(erroResponse{Code: "WMS_FORMAT", Message: err.Error()})
	case errors.As(err, &transpErr):
		metrics.ObserveEnvio(transpErr.Etapa, "transport_error")
		metrics.ObserveCiclo("transport_error", "api", time.Since(start))
		return c.Status(fiber.StatusBadGateway).JSON(erroResponse{Code: "WMS_TRANSPORT", Message: err.Error()})
	default:
		metrics.ObserveCiclo("transport_error", "api", time.Since(start))
		return c.Status(fiber.StatusInternalServerError).JSON(erroResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
