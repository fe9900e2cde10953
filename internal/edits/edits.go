// Package edits aplica as edições do usuário sobre a nota extraída.
// Regra herdada do editor: campo em branco mantém o valor original.
package edits

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"nfe-bridge/internal/nfe"
)

// ErrQtdEdicoes indica divergência entre a quantidade de edições e a de
// itens da nota. A correspondência é posicional, então divergência é
// sempre erro do chamador.
var ErrQtdEdicoes = errors.New("quantidade de edições difere da quantidade de itens")

// ItemEdit é o registro de edição de uma linha. Todos os campos são
// opcionais: string vazia e quantidade não positiva significam
// "mantém o original". Não existe edição de valor unitário nem de
// valor total: o total da linha é sempre o do documento.
type ItemEdit struct {
	Codigo     string          `json:"codigo"`
	Descricao  string          `json:"descricao"`
	Unidade    string          `json:"unidade"`
	Quantidade decimal.Decimal `json:"quantidade"`
	EAN        string          `json:"ean"`
}

// Vazio diz se a edição não altera nada.
func (e ItemEdit) Vazio() bool {
	return e.Codigo == "" && e.Descricao == "" && e.Unidade == "" &&
		!e.Quantidade.IsPositive() && e.EAN == ""
}

// Blank devolve um conjunto de edições vazio com o tamanho certo pra nota.
func Blank(n *nfe.NotaFiscal) []ItemEdit {
	return make([]ItemEdit, len(n.Itens))
}

// Apply mescla as edições sobre a nota e devolve a nota efetiva.
// A correspondência é estritamente posicional (edição i ↔ item i), e a
// quantidade de edições tem que bater com a de itens: divergência é
// erro, nunca truncamento silencioso. A função é pura: mesma entrada,
// mesma saída, nota original intacta.
func Apply(n nfe.NotaFiscal, eds []ItemEdit) (nfe.NotaFiscal, error) {
	if len(eds) != len(n.Itens) {
		return nfe.NotaFiscal{}, fmt.Errorf("%w: %d edições para %d itens",
			ErrQtdEdicoes, len(eds), len(n.Itens))
	}

	itens := make([]nfe.Item, len(n.Itens))
	copy(itens, n.Itens)

	for i, e := range eds {
		if e.Codigo != "" {
			itens[i].Codigo = e.Codigo
		}
		if e.Descricao != "" {
			itens[i].Descricao = e.Descricao
		}
		if e.Unidade != "" {
			itens[i].Unidade = e.Unidade
		}
		if e.Quantidade.IsPositive() {
			itens[i].Quantidade = e.Quantidade
		}
		if e.EAN != "" {
			itens[i].EAN = e.EAN
		}
		// ValorUnitario e ValorTotal nunca são sobrescritos
	}

	n.Itens = itens
	return n, nil
}
