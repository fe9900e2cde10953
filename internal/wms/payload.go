// Package wms monta e envia os payloads da integração com o WMS:
// cadastro de produtos e entrada de nota (recebimento).
package wms

import (
	"strconv"
	"time"

	"nfe-bridge/internal/nfe"
)

// Campos de negócio numéricos viajam como string no contrato do WMS,
// pelo mesmo motivo dos identificadores da NF-e: zero à esquerda e
// precisão não podem se perder no caminho.

type Embalagem struct {
	Unidade  string `json:"UNIDADE"`
	Fator    string `json:"FATOR"`
	CodBarra string `json:"CODBARRA"`
}

type ProdutoCadastro struct {
	CodProd    string      `json:"CODPROD"`
	DescrProd  string      `json:"DESCRPROD"`
	Embalagens []Embalagem `json:"EMBALAGENS"`
}

type CadastroProdutos struct {
	CgcCliWms string            `json:"CGCCLIWMS"`
	Produtos  []ProdutoCadastro `json:"PRODUTOS"`
}

type ItemRecebimento struct {
	NumSeq    string `json:"NUMSEQ"`
	CodProd   string `json:"CODPROD"`
	QtProd    string `json:"QTPROD"`
	VlTotProd string `json:"VLTOTPROD"`
}

type Recebimento struct {
	CgcCliWms    string            `json:"CGCCLIWMS"`
	CgcRem       string            `json:"CGCREM"`
	NomeRem      string            `json:"NOMEREM"`
	TipoDestNF   string            `json:"TIPODESTNF"`
	Devolucao    string            `json:"DEVOLUCAO"`
	NumNF        string            `json:"NUMNF"`
	SerieNF      string            `json:"SERIENF"`
	DtEmiNF      string            `json:"DTEMINF"`
	VlTotalNF    string            `json:"VLTOTALNF"`
	NumPedCompra string            `json:"NUMPEDCOMPRA"`
	ChaveNF      string            `json:"CHAVENF"`
	Itens        []ItemRecebimento `json:"ITENS"`
}

const (
	tipoDestNF   = "1" // entrada direcionada ao depositante
	naoDevolucao = "N"
	fatorPadrao  = "1"
)

// BuildCadastroProdutos monta o payload de cadastro: um produto por item
// da nota, com uma única embalagem (unidade comercial, fator 1, código
// de barras, ou o sentinela SEM GTIN quando não há).
func BuildCadastroProdutos(cgcCliente string, n nfe.NotaFiscal) CadastroProdutos {
	produtos := make([]ProdutoCadastro, 0, len(n.Itens))
	for _, it := range n.Itens {
		codBarra := it.EAN
		if codBarra == "" {
			codBarra = nfe.SemGTIN
		}
		produtos = append(produtos, ProdutoCadastro{
			CodProd:   it.Codigo,
			DescrProd: it.Descricao,
			Embalagens: []Embalagem{{
				Unidade:  it.Unidade,
				Fator:    fatorPadrao,
				CodBarra: codBarra,
			}},
		})
	}
	return CadastroProdutos{
		CgcCliWms: cgcCliente,
		Produtos:  produtos,
	}
}

// BuildRecebimento monta o payload de entrada de NF. O pedido de compra
// externo é gerado como número da nota + data do envio em DDMMAAAA
// (data do envio, não da emissão). A data é recebida por parâmetro pra
// função continuar pura; quem chama passa time.Now().
func BuildRecebimento(cgcCliente string, n nfe.NotaFiscal, hoje time.Time) Recebimento {
	itens := make([]ItemRecebimento, 0, len(n.Itens))
	for i, it := range n.Itens {
		itens = append(itens, ItemRecebimento{
			NumSeq:    strconv.Itoa(i + 1),
			CodProd:   it.Codigo,
			QtProd:    it.Quantidade.String(),
			VlTotProd: it.ValorTotal.String(),
		})
	}

	return Recebimento{
		CgcCliWms:    cgcCliente,
		CgcRem:       n.EmitenteCNPJ,
		NomeRem:      n.EmitenteRazao,
		TipoDestNF:   tipoDestNF,
		Devolucao:    naoDevolucao,
		NumNF:        n.Numero,
		SerieNF:      n.Serie,
		DtEmiNF:      n.Emissao.Format("02/01/2006"),
		VlTotalNF:    n.ValorTotal.String(),
		NumPedCompra: n.Numero + hoje.Format("02012006"),
		ChaveNF:      n.ChaveAcesso,
		Itens:        itens,
	}
}
