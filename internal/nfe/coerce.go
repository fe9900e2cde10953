package nfe

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// camposIdentificadores são tags cujo conteúdo parece numérico mas é
// identificador: nunca podem virar número, senão zero à esquerda e
// precisão vão embora (nNF "0700" não é 700).
var camposIdentificadores = map[string]struct{}{
	"nNF":   {},
	"serie": {},
	"cProd": {},
	"NCM":   {},
	"CFOP":  {},
	"cEAN":  {},
	"chNFe": {},
	"CNPJ":  {},
	"CPF":   {},
}

// Coercer extrai valores de folhas da árvore com defaults bem definidos.
type Coercer struct {
	identificadores map[string]struct{}
}

func NewCoercer() *Coercer {
	return &Coercer{identificadores: camposIdentificadores}
}

// Identificador diz se a tag só pode ser lida como texto.
func (c *Coercer) Identificador(tag string) bool {
	_, ok := c.identificadores[tag]
	return ok
}

// AsString devolve o texto do elemento como está no documento
// (zeros à esquerda preservados); ausente ou vazio devolve def.
func (c *Coercer) AsString(el *etree.Element, def string) string {
	if el == nil {
		return def
	}
	v := strings.TrimSpace(el.Text())
	if v == "" {
		return def
	}
	return v
}

// AsNumber interpreta o texto como decimal (aceita vírgula como separador).
// Ausente ou imparseável devolve def, nunca erro. Tags identificadoras são
// recusadas de cara: devolvem def sempre.
func (c *Coercer) AsNumber(el *etree.Element, def decimal.Decimal) decimal.Decimal {
	if el == nil {
		return def
	}
	if c.Identificador(el.Tag) {
		return def
	}
	v := strings.TrimSpace(el.Text())
	if v == "" {
		return def
	}
	v = strings.ReplaceAll(v, ",", ".")
	d, err := decimal.NewFromString(v)
	if err != nil {
		return def
	}
	return d
}
