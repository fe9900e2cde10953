package nfe_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfe-bridge/internal/nfe"
)

func TestRewriteItens_GravaCamposEditados(t *testing.T) {
	doc, err := nfe.Parse([]byte(xmlNfeProc))
	require.NoError(t, err)

	itens := []nfe.Item{{
		Codigo:        "B999",
		Descricao:     "Parafusos revisados",
		Unidade:       "PC",
		Quantidade:    decimal.RequireFromString("12"),
		ValorUnitario: decimal.RequireFromString("5"),
		ValorTotal:    decimal.RequireFromString("60"),
		EAN:           "7891234567895",
	}}

	require.NoError(t, nfe.RewriteItens(doc, itens))

	prod := doc.InfNFe().FindElement("det/prod")
	require.NotNil(t, prod)
	assert.Equal(t, "B999", prod.SelectElement("cProd").Text())
	assert.Equal(t, "Parafusos revisados", prod.SelectElement("xProd").Text())
	assert.Equal(t, "PC", prod.SelectElement("uCom").Text())
	assert.Equal(t, "12", prod.SelectElement("qCom").Text())
	assert.Equal(t, "7891234567895", prod.SelectElement("cEAN").Text())

	// vProd é autoritativo do documento: a reescrita nunca encosta nele
	assert.Equal(t, "50.00", prod.SelectElement("vProd").Text())
}

func TestRewriteItens_QuantidadeDiferente(t *testing.T) {
	doc, err := nfe.Parse([]byte(xmlNfeProc))
	require.NoError(t, err)

	err = nfe.RewriteItens(doc, []nfe.Item{{}, {}})
	assert.Error(t, err, "nota tem 1 det, 2 itens é divergência")
}

func TestNomeArquivo(t *testing.T) {
	n := &nfe.NotaFiscal{Numero: "0700", DestRazao: "Deposito Central SA"}
	assert.Equal(t, "NF0700_DepositoC.xml", nfe.NomeArquivo(n),
		"número + 10 primeiros caracteres do destinatário, sem espaço nem pontuação")
}

func TestNomeArquivo_DestinatarioCurto(t *testing.T) {
	n := &nfe.NotaFiscal{Numero: "1", DestRazao: "Acme"}
	assert.Equal(t, "NF1_Acme.xml", nfe.NomeArquivo(n))
}
