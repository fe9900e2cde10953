package wms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"nfe-bridge/internal/nfe"
)

// respostaOK é o corpo esperado do WMS: {"MENSAGEM": "OK"} no sucesso,
// qualquer outra coisa é falha.
const mensagemOK = "OK"

type respostaWMS struct {
	Mensagem string `json:"MENSAGEM"`
}

// TransportError indica falha de rede, status não-2xx ou resposta sem o
// sentinela de sucesso. O detalhe bruto do servidor vai junto pra o
// usuário ver o motivo real.
type TransportError struct {
	Etapa   string
	Status  int
	Detalhe string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("falha no envio (%s): %v", e.Etapa, e.Err)
	}
	return fmt.Sprintf("envio rejeitado (%s, HTTP %d): %s", e.Etapa, e.Status, e.Detalhe)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ResponseFormatError indica corpo de resposta que não é o JSON esperado.
// O corpo vai verbatim; é tratado como falha.
type ResponseFormatError struct {
	Etapa string
	Corpo string
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("resposta do WMS fora do formato esperado (%s): %s", e.Etapa, e.Corpo)
}

// Client fala com os endpoints de integração do WMS. Os dois envios são
// JSON POST com o token opaco num header próprio.
type Client struct {
	httpClient *http.Client

	urlCadastro    string
	urlRecebimento string
	urlRelay       string
	token          string
	tokenHeader    string
}

// New monta o cliente. O WMS pode demorar, então o timeout é folgado.
func New(urlCadastro, urlRecebimento, urlRelay, token, tokenHeader string) *Client {
	if tokenHeader == "" {
		tokenHeader = "X-Auth-Token"
	}
	return &Client{
		httpClient:     &http.Client{Timeout: 60 * time.Second},
		urlCadastro:    urlCadastro,
		urlRecebimento: urlRecebimento,
		urlRelay:       urlRelay,
		token:          token,
		tokenHeader:    tokenHeader,
	}
}

// SubmitNota executa a sequência completa: cadastro de produtos primeiro
// e, só com o OK dele, a entrada da nota. O payload de recebimento nem
// chega a ser montado enquanto o cadastro não confirma. Falha na
// primeira etapa aborta a segunda; nada é desfeito nem retentado, o
// chamador decide se tenta de novo. hoje entra no pedido de compra
// externo; quem chama passa time.Now().
func (c *Client) SubmitNota(ctx context.Context, cgcCliente string, n nfe.NotaFiscal, hoje time.Time) error {
	if err := c.postJSON(ctx, "cadproduto", c.urlCadastro, BuildCadastroProdutos(cgcCliente, n)); err != nil {
		return err
	}
	return c.postJSON(ctx, "recebimento", c.urlRecebimento, BuildRecebimento(cgcCliente, n, hoje))
}

func (c *Client) postJSON(ctx context.Context, etapa, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &TransportError{Etapa: etapa, Err: fmt.Errorf("serializando payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Etapa: etapa, Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set(c.tokenHeader, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Etapa: etapa, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return &TransportError{Etapa: etapa, Err: fmt.Errorf("lendo resposta: %w", err)}
	}
	detalhe := strings.TrimSpace(string(raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Etapa: etapa, Status: resp.StatusCode, Detalhe: detalhe}
	}

	var r respostaWMS
	if err := json.Unmarshal(raw, &r); err != nil {
		return &ResponseFormatError{Etapa: etapa, Corpo: detalhe}
	}
	if r.Mensagem != mensagemOK {
		return &TransportError{Etapa: etapa, Status: resp.StatusCode, Detalhe: detalhe}
	}

	slog.Info("etapa de envio ao WMS confirmada",
		"etapa", etapa,
		"status", resp.StatusCode,
	)
	return nil
}
