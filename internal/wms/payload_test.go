package wms_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfe-bridge/internal/nfe"
	"nfe-bridge/internal/wms"
)

func notaDeTeste() nfe.NotaFiscal {
	return nfe.NotaFiscal{
		Numero:        "0700",
		Serie:         "1",
		Emissao:       time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		ChaveAcesso:   "35240112345678000195550010000007001000000010",
		EmitenteCNPJ:  "12345678000195",
		EmitenteRazao: "Industria Exemplo LTDA",
		DestCNPJCPF:   "98765432000188",
		DestRazao:     "Deposito Central SA",
		ValorTotal:    decimal.RequireFromString("50.00"),
		Itens: []nfe.Item{{
			Codigo:        "A001",
			Descricao:     "Caixa de parafusos",
			Unidade:       "CX",
			Quantidade:    decimal.RequireFromString("10.0000"),
			ValorUnitario: decimal.RequireFromString("5.0000"),
			ValorTotal:    decimal.RequireFromString("50.00"),
			EAN:           nfe.SemGTIN,
		}},
	}
}

func TestBuildCadastroProdutos(t *testing.T) {
	cad := wms.BuildCadastroProdutos("98765432000188", notaDeTeste())

	assert.Equal(t, "98765432000188", cad.CgcCliWms)
	require.Len(t, cad.Produtos, 1)

	p := cad.Produtos[0]
	assert.Equal(t, "A001", p.CodProd)
	assert.Equal(t, "Caixa de parafusos", p.DescrProd)

	require.Len(t, p.Embalagens, 1, "uma embalagem por produto")
	emb := p.Embalagens[0]
	assert.Equal(t, "CX", emb.Unidade)
	assert.Equal(t, "1", emb.Fator, "fator é sempre 1")
	assert.Equal(t, "SEM GTIN", emb.CodBarra)
}

func TestBuildCadastroProdutos_EANVazioViraSentinela(t *testing.T) {
	n := notaDeTeste()
	n.Itens[0].EAN = ""

	cad := wms.BuildCadastroProdutos("98765432000188", n)
	assert.Equal(t, nfe.SemGTIN, cad.Produtos[0].Embalagens[0].CodBarra)
}

func TestBuildRecebimento(t *testing.T) {
	hoje := time.Date(2024, 2, 3, 9, 0, 0, 0, time.UTC)
	rec := wms.BuildRecebimento("98765432000188", notaDeTeste(), hoje)

	assert.Equal(t, "98765432000188", rec.CgcCliWms)
	assert.Equal(t, "12345678000195", rec.CgcRem)
	assert.Equal(t, "Industria Exemplo LTDA", rec.NomeRem)
	assert.Equal(t, "1", rec.TipoDestNF)
	assert.Equal(t, "N", rec.Devolucao)
	assert.Equal(t, "0700", rec.NumNF)
	assert.Equal(t, "1", rec.SerieNF)
	assert.Equal(t, "15/01/2024", rec.DtEmiNF, "emissão em DD/MM/AAAA")
	assert.Equal(t, "50", rec.VlTotalNF, "50.00 viaja como 50, sem zeros à direita")
	assert.Equal(t, "070003022024", rec.NumPedCompra,
		"pedido externo = número da nota + data do ENVIO em DDMMAAAA")
	assert.Equal(t, "35240112345678000195550010000007001000000010", rec.ChaveNF)

	require.Len(t, rec.Itens, 1)
	it := rec.Itens[0]
	assert.Equal(t, "1", it.NumSeq, "sequência começa em 1")
	assert.Equal(t, "A001", it.CodProd)
	assert.Equal(t, "10", it.QtProd, "10.0000 viaja como 10")
	assert.Equal(t, "50", it.VlTotProd)
}

func TestBuildRecebimento_SequenciaPorPosicao(t *testing.T) {
	n := notaDeTeste()
	n.Itens = append(n.Itens, nfe.Item{
		Codigo:     "A002",
		Quantidade: decimal.RequireFromString("2"),
		ValorTotal: decimal.RequireFromString("8"),
	})

	rec := wms.BuildRecebimento("98765432000188", n, time.Now())
	require.Len(t, rec.Itens, 2)
	assert.Equal(t, "1", rec.Itens[0].NumSeq)
	assert.Equal(t, "2", rec.Itens[1].NumSeq)
}
