package nfe

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// Documento é a árvore XML de uma NF-e já localizada: independente do
// arquivo vir como <nfeProc> (autorizado) ou <NFe> "solta", o acesso
// aos campos parte sempre do <infNFe>.
type Documento struct {
	doc *etree.Document
	inf *etree.Element
}

// Parse lê o XML bruto e devolve o Documento posicionado no infNFe.
// XML malformado ou sem infNFe devolve *ParseError; nunca há resultado parcial.
func Parse(data []byte) (*Documento, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &ParseError{Err: err}
	}

	root := doc.Root()
	if root == nil {
		return nil, &ParseError{Err: errors.New("documento sem elemento raiz")}
	}

	var inf *etree.Element
	switch root.Tag {
	case "nfeProc":
		inf = root.FindElement("NFe/infNFe")
	case "NFe":
		inf = root.SelectElement("infNFe")
	}
	if inf == nil {
		return nil, &ParseError{
			Err: fmt.Errorf("XML não reconhecido como nfeProc ou NFe (raiz <%s>)", root.Tag),
		}
	}

	return &Documento{doc: doc, inf: inf}, nil
}

// charsetReader aceita, além do UTF-8 que o parser já trata, o
// ISO-8859-1 que ainda aparece em XML de emissor antigo. Cada byte
// Latin-1 corresponde ao code point de mesmo valor.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "utf-8", "":
		return input, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		raw, err := io.ReadAll(input)
		if err != nil {
			return nil, err
		}
		out := make([]rune, len(raw))
		for i, b := range raw {
			out[i] = rune(b)
		}
		return strings.NewReader(string(out)), nil
	default:
		return nil, fmt.Errorf("encoding não suportado: %s", charset)
	}
}

// InfNFe devolve o elemento <infNFe>.
func (d *Documento) InfNFe() *etree.Element { return d.inf }

// Protocolo devolve <protNFe>/<infProt> quando o arquivo é um nfeProc,
// ou nil na NFe solta.
func (d *Documento) Protocolo() *etree.Element {
	root := d.doc.Root()
	if root == nil || root.Tag != "nfeProc" {
		return nil
	}
	return root.FindElement("protNFe/infProt")
}

// Bytes serializa a árvore de volta pra XML.
func (d *Documento) Bytes() ([]byte, error) {
	return d.doc.WriteToBytes()
}

// Clone copia a árvore inteira. Usado pelo download do XML editado pra
// não mexer no documento guardado na sessão.
func (d *Documento) Clone() *Documento {
	doc := d.doc.Copy()
	root := doc.Root()

	var inf *etree.Element
	switch root.Tag {
	case "nfeProc":
		inf = root.FindElement("NFe/infNFe")
	default:
		inf = root.SelectElement("infNFe")
	}
	return &Documento{doc: doc, inf: inf}
}

// NormalizeList garante que elementos repetíveis (o container det,
// principalmente) sejam sempre tratados como lista: pai nil ou sem
// ocorrências vira lista vazia, uma ocorrência vira lista de um.
func NormalizeList(parent *etree.Element, tag string) []*etree.Element {
	if parent == nil {
		return nil
	}
	return parent.SelectElements(tag)
}
