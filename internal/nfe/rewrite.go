package nfe

import (
	"fmt"

	"github.com/beevik/etree"
)

// RewriteItens grava os valores efetivos dos itens de volta na árvore
// original (download do XML editado). vProd fica intocado: o total da
// linha é sempre o do documento. A correspondência é posicional, então
// a quantidade de itens tem que bater com os det do documento.
func RewriteItens(doc *Documento, itens []Item) error {
	dets := NormalizeList(doc.InfNFe(), "det")
	if len(dets) != len(itens) {
		return fmt.Errorf("quantidade de itens (%d) difere dos det do documento (%d)", len(itens), len(dets))
	}

	for i, det := range dets {
		prod := det.SelectElement("prod")
		if prod == nil {
			return fmt.Errorf("det %d sem elemento prod", i+1)
		}
		it := itens[i]
		setCampo(prod, "cProd", it.Codigo)
		setCampo(prod, "xProd", it.Descricao)
		setCampo(prod, "uCom", it.Unidade)
		setCampo(prod, "qCom", it.Quantidade.String())
		setCampo(prod, "cEAN", it.EAN)
	}

	return nil
}

func setCampo(prod *etree.Element, tag, valor string) {
	el := prod.SelectElement(tag)
	if el == nil {
		el = prod.CreateElement(tag)
	}
	el.SetText(valor)
}

// NomeArquivo monta o nome do XML baixado: "NF" + número + primeiros 10
// caracteres alfanuméricos do destinatário.
func NomeArquivo(n *NotaFiscal) string {
	dest := []rune(n.DestRazao)
	if len(dest) > 10 {
		dest = dest[:10]
	}
	var b []rune
	for _, r := range dest {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b = append(b, r)
		}
	}
	return "NF" + n.Numero + "_" + string(b) + ".xml"
}
