package wms

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
)

// RelayXML é o modo antigo da integração: manda o XML bruto, sem nenhuma
// edição aplicada, como upload multipart pro endpoint de relay. Qualquer
// 2xx conta como sucesso; o relay não devolve o sentinela de OK.
func (c *Client) RelayXML(ctx context.Context, filename string, raw []byte) error {
	if c.urlRelay == "" {
		return &TransportError{Etapa: "relay", Err: fmt.Errorf("endpoint de relay não configurado")}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return &TransportError{Etapa: "relay", Err: err}
	}
	if _, err := fw.Write(raw); err != nil {
		return &TransportError{Etapa: "relay", Err: err}
	}
	if err := mw.Close(); err != nil {
		return &TransportError{Etapa: "relay", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.urlRelay, &buf)
	if err != nil {
		return &TransportError{Etapa: "relay", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(c.tokenHeader, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Etapa: "relay", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		corpo, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &TransportError{
			Etapa:   "relay",
			Status:  resp.StatusCode,
			Detalhe: strings.TrimSpace(string(corpo)),
		}
	}

	slog.Info("XML retransmitido pro relay",
		"filename", filename,
		"status", resp.StatusCode,
	)
	return nil
}
