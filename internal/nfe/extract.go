package nfe

import (
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// Extract percorre a árvore normalizada e monta a NotaFiscal.
// Número da nota, razão social e documento do destinatário são
// obrigatórios (viram nome de arquivo e identidade do payload);
// o resto cai em defaults documentados.
func Extract(doc *Documento) (*NotaFiscal, error) {
	c := NewCoercer()
	inf := doc.InfNFe()

	ide := inf.SelectElement("ide")
	dest := inf.SelectElement("dest")
	emit := inf.SelectElement("emit")

	numero := c.AsString(sel(ide, "nNF"), "")
	if numero == "" {
		return nil, &MissingFieldError{Campo: "ide/nNF"}
	}

	destRazao := c.AsString(sel(dest, "xNome"), "")
	if destRazao == "" {
		return nil, &MissingFieldError{Campo: "dest/xNome"}
	}

	// CNPJ tem preferência sobre CPF quando os dois aparecem
	destDoc := c.AsString(sel(dest, "CNPJ"), "")
	if destDoc == "" {
		destDoc = c.AsString(sel(dest, "CPF"), "")
	}
	if destDoc == "" {
		return nil, &MissingFieldError{Campo: "dest/CNPJ|CPF"}
	}

	n := &NotaFiscal{
		Numero:      numero,
		Serie:       c.AsString(sel(ide, "serie"), ""),
		Emissao:     extrairEmissao(c, ide),
		Finalidade:  extrairFinalidade(c, ide),
		ChaveAcesso: extrairChave(c, doc, inf),
		DestRazao:   destRazao,
		DestCNPJCPF: soDigitos(destDoc),
		ValorTotal:  c.AsNumber(inf.FindElement("total/ICMSTot/vNF"), decimal.Zero),
	}

	if emit != nil {
		emitDoc := c.AsString(sel(emit, "CNPJ"), "")
		if emitDoc == "" {
			emitDoc = c.AsString(sel(emit, "CPF"), "")
		}
		n.EmitenteCNPJ = soDigitos(emitDoc)
		n.EmitenteRazao = c.AsString(sel(emit, "xNome"), "")
	}

	for _, det := range NormalizeList(inf, "det") {
		prod := det.SelectElement("prod")
		n.Itens = append(n.Itens, Item{
			Codigo:        c.AsString(sel(prod, "cProd"), ""),
			Descricao:     c.AsString(sel(prod, "xProd"), ""),
			Unidade:       c.AsString(sel(prod, "uCom"), ""),
			Quantidade:    c.AsNumber(sel(prod, "qCom"), decimal.Zero),
			ValorUnitario: c.AsNumber(sel(prod, "vUnCom"), decimal.Zero),
			ValorTotal:    c.AsNumber(sel(prod, "vProd"), decimal.Zero),
			EAN:           c.AsString(sel(prod, "cEAN"), SemGTIN),
		})
	}

	return n, nil
}

func sel(parent *etree.Element, tag string) *etree.Element {
	if parent == nil {
		return nil
	}
	return parent.SelectElement(tag)
}

// extrairEmissao tenta dhEmi (4.00) e cai pra dEmi (3.10/antigas).
// Ausente ou imparseável vira a data corrente, que é o comportamento
// esperado pelo payload de recebimento.
func extrairEmissao(c *Coercer, ide *etree.Element) time.Time {
	raw := c.AsString(sel(ide, "dhEmi"), "")
	if raw == "" {
		raw = c.AsString(sel(ide, "dEmi"), "")
	}
	if t, ok := parseData(raw); ok {
		return t
	}
	return time.Now()
}

func parseData(d string) (time.Time, bool) {
	d = strings.TrimSpace(d)
	if d == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05-07:00",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, d); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func extrairFinalidade(c *Coercer, ide *etree.Element) int {
	raw := c.AsString(sel(ide, "finNFe"), "")
	if raw == "" {
		return 1
	}
	f, err := strconv.Atoi(raw)
	if err != nil || f <= 0 {
		return 1
	}
	return f
}

// extrairChave prefere o chNFe do protocolo; sem protocolo, extrai do
// atributo Id ("NFe3514..." → "3514...").
func extrairChave(c *Coercer, doc *Documento, inf *etree.Element) string {
	if prot := doc.Protocolo(); prot != nil {
		if chave := c.AsString(sel(prot, "chNFe"), ""); chave != "" {
			return soDigitos(chave)
		}
	}
	id := strings.TrimSpace(inf.SelectAttrValue("Id", ""))
	return soDigitos(strings.TrimPrefix(id, "NFe"))
}
