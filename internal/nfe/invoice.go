package nfe

import (
	"time"

	"github.com/shopspring/decimal"
)

// SemGTIN é o sentinela oficial da NF-e pra produto sem código de barras.
const SemGTIN = "SEM GTIN"

// NotaFiscal é a representação normalizada de uma NF-e carregada.
// Imutável depois da extração: edições do usuário geram uma cópia
// (ver pacote edits), nunca mexem aqui.
type NotaFiscal struct {
	Numero        string
	Serie         string
	Emissao       time.Time
	Finalidade    int
	ChaveAcesso   string
	EmitenteCNPJ  string
	EmitenteRazao string
	DestCNPJCPF   string
	DestRazao     string
	ValorTotal    decimal.Decimal

	Itens []Item
}

// Item é uma linha de produto da nota. ValorTotal vem do documento e é
// autoritativo: nunca é recalculado de Quantidade × ValorUnitario.
type Item struct {
	Codigo        string
	Descricao     string
	Unidade       string
	Quantidade    decimal.Decimal
	ValorUnitario decimal.Decimal
	ValorTotal    decimal.Decimal
	EAN           string
}

// Resumo é o cabeçalho da nota pra exibição.
type Resumo struct {
	Numero        string `json:"numero"`
	Serie         string `json:"serie"`
	Emissao       string `json:"emissao"`
	ChaveAcesso   string `json:"chave_acesso"`
	EmitenteRazao string `json:"emitente_razao"`
	DestRazao     string `json:"dest_razao"`
	DestCNPJCPF   string `json:"dest_cnpj_cpf"`
	ValorTotal    string `json:"valor_total"`
	QtdItens      int    `json:"qtd_itens"`
}

func (n *NotaFiscal) Resumo() Resumo {
	return Resumo{
		Numero:        n.Numero,
		Serie:         n.Serie,
		Emissao:       n.Emissao.Format("2006-01-02"),
		ChaveAcesso:   n.ChaveAcesso,
		EmitenteRazao: n.EmitenteRazao,
		DestRazao:     n.DestRazao,
		DestCNPJCPF:   n.DestCNPJCPF,
		ValorTotal:    n.ValorTotal.String(),
		QtdItens:      len(n.Itens),
	}
}
