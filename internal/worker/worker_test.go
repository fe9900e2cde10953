package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfe-bridge/internal/config"
	"nfe-bridge/internal/wms"
)

const xmlNota = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc versao="4.00" xmlns="http://www.portalfiscal.inf.br/nfe">
  <NFe>
    <infNFe Id="NFe35240112345678000195550010000007001000000010" versao="4.00">
      <ide><nNF>0700</nNF><serie>1</serie><dhEmi>2024-01-15T10:30:00-03:00</dhEmi></ide>
      <emit><CNPJ>12345678000195</CNPJ><xNome>Industria Exemplo LTDA</xNome></emit>
      <dest><CNPJ>98765432000188</CNPJ><xNome>Deposito Central SA</xNome></dest>
      <det nItem="1">
        <prod><cProd>A001</cProd><xProd>Caixa de parafusos</xProd><uCom>CX</uCom><qCom>10.0000</qCom><vUnCom>5.0000</vUnCom><vProd>50.00</vProd><cEAN>SEM GTIN</cEAN></prod>
      </det>
      <total><ICMSTot><vNF>50.00</vNF></ICMSTot></total>
    </infNFe>
  </NFe>
</nfeProc>`

func workerDeTeste(t *testing.T, wmsURL string) (*Worker, *config.Config) {
	t.Helper()
	base := t.TempDir()

	cfg := &config.Config{
		WMSURLCadastro:    wmsURL,
		WMSURLRecebimento: wmsURL,
		ProcessingDir:     filepath.Join(base, "processing"),
		ProcessedDir:      filepath.Join(base, "processed"),
		FailedDir:         filepath.Join(base, "failed"),
		IgnoredDir:        filepath.Join(base, "ignored"),
	}
	for _, d := range []string{cfg.ProcessingDir, cfg.ProcessedDir, cfg.FailedDir, cfg.IgnoredDir} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}

	// sem banco: auditoria desligada, pipeline segue igual
	return New(cfg, nil), cfg
}

func escreve(t *testing.T, dir, nome, conteudo string) string {
	t.Helper()
	path := filepath.Join(dir, nome)
	require.NoError(t, os.WriteFile(path, []byte(conteudo), 0o644))
	return path
}

func arquivosEm(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var nomes []string
	for _, e := range entries {
		nomes = append(nomes, e.Name())
	}
	return nomes
}

func TestProcessXML_SucessoMoveParaProcessed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"MENSAGEM":"OK"}`))
	}))
	defer srv.Close()

	w, cfg := workerDeTeste(t, srv.URL)
	path := escreve(t, cfg.ProcessingDir, "nota.xml", xmlNota)

	w.processXML(context.Background(), path, "nota.xml")

	assert.Equal(t, int32(2), hits.Load(), "cadastro e recebimento")
	assert.Equal(t, []string{"nota.xml"}, arquivosEm(t, cfg.ProcessedDir))
	assert.Empty(t, arquivosEm(t, cfg.FailedDir))
}

func TestProcessXML_ParseErrorMoveParaFailed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	w, cfg := workerDeTeste(t, srv.URL)
	path := escreve(t, cfg.ProcessingDir, "lixo.xml", "isso não é uma NF-e")

	w.processXML(context.Background(), path, "lixo.xml")

	assert.Equal(t, int32(0), hits.Load(), "XML inválido nem chega no WMS")
	assert.Equal(t, []string{"lixo.xml"}, arquivosEm(t, cfg.FailedDir))
}

func TestProcessXML_FalhaDoWMSMoveParaFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"MENSAGEM":"CLIENTE NAO CADASTRADO"}`))
	}))
	defer srv.Close()

	w, cfg := workerDeTeste(t, srv.URL)
	path := escreve(t, cfg.ProcessingDir, "nota.xml", xmlNota)

	w.processXML(context.Background(), path, "nota.xml")

	assert.Equal(t, []string{"nota.xml"}, arquivosEm(t, cfg.FailedDir))
	assert.Empty(t, arquivosEm(t, cfg.ProcessedDir))
}

func TestProcessProcessingFolder_ExtensaoEstranhaVaiParaIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"MENSAGEM":"OK"}`))
	}))
	defer srv.Close()

	w, cfg := workerDeTeste(t, srv.URL)
	escreve(t, cfg.ProcessingDir, "planilha.csv", "a;b;c")
	escreve(t, cfg.ProcessingDir, "nota.xml", xmlNota)

	w.processProcessingFolder(context.Background())

	assert.Equal(t, []string{"planilha.csv"}, arquivosEm(t, cfg.IgnoredDir))
	assert.Equal(t, []string{"nota.xml"}, arquivosEm(t, cfg.ProcessedDir))
	assert.Empty(t, arquivosEm(t, cfg.ProcessingDir))
}

func TestClassificaEnvio(t *testing.T) {
	assert.Equal(t, "success", classificaEnvio(nil))
	assert.Equal(t, "format_error", classificaEnvio(&wms.ResponseFormatError{Etapa: "cadproduto"}))
	assert.Equal(t, "transport_error", classificaEnvio(&wms.TransportError{Etapa: "recebimento"}))
	assert.Equal(t, "transport_error", classificaEnvio(errors.New("qualquer outra coisa")))
}
