// Package session guarda o estado em memória do fluxo interativo.
// Uma sessão por vez: carregar outra nota substitui tudo de uma vez
// (nota, edições, cliente), igual ao "Carregar Novo Arquivo" do editor.
// Nada é persistido.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"nfe-bridge/internal/edits"
	"nfe-bridge/internal/nfe"
)

// ErrSemNota indica que nenhuma nota foi carregada ainda.
var ErrSemNota = errors.New("nenhuma NF-e carregada na sessão")

// Sessao é um valor imutável do ponto de vista do Manager: toda mudança
// troca o ponteiro inteiro, nunca há mutação parcial visível.
type Sessao struct {
	ID          string
	Nota        *nfe.NotaFiscal
	Documento   *nfe.Documento
	XMLRaw      []byte
	Edicoes     []edits.ItemEdit
	CgcCliente  string
	CarregadaEm time.Time
}

// Manager serializa o acesso à sessão corrente. Os handlers HTTP rodam
// concorrentes, mas o modelo é de um único documento carregado por vez.
type Manager struct {
	mu    sync.RWMutex
	atual *Sessao
}

func NewManager() *Manager {
	return &Manager{}
}

// Load parseia e extrai a NF-e e substitui a sessão inteira. Em erro de
// parse ou extração nada muda: a sessão anterior continua valendo.
func (m *Manager) Load(xmlRaw []byte) (*Sessao, error) {
	doc, err := nfe.Parse(xmlRaw)
	if err != nil {
		return nil, err
	}
	nota, err := nfe.Extract(doc)
	if err != nil {
		return nil, err
	}

	// Cliente default é o destinatário da nota, já formatado; o usuário
	// pode trocar depois.
	if nfe.DocumentoSuspeito(nota.DestCNPJCPF) {
		slog.Warn("documento do destinatário com tamanho atípico, será completado com zeros",
			"dest_cnpj_cpf", nota.DestCNPJCPF,
		)
	}

	s := &Sessao{
		ID:          uuid.NewString(),
		Nota:        nota,
		Documento:   doc,
		XMLRaw:      xmlRaw,
		Edicoes:     edits.Blank(nota),
		CgcCliente:  nfe.FormatDocumento(nota.DestCNPJCPF),
		CarregadaEm: time.Now(),
	}

	m.mu.Lock()
	m.atual = s
	m.mu.Unlock()

	slog.Info("NF-e carregada na sessão",
		"sessao", s.ID,
		"numero", nota.Numero,
		"chave", nota.ChaveAcesso,
		"itens", len(nota.Itens),
	)
	return s, nil
}

// Atual devolve a sessão corrente ou ErrSemNota.
func (m *Manager) Atual() (*Sessao, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.atual == nil {
		return nil, ErrSemNota
	}
	return m.atual, nil
}

// SetEdicoes troca o conjunto de edições. O tamanho tem que bater com a
// quantidade de itens da nota (correspondência posicional).
func (m *Manager) SetEdicoes(eds []edits.ItemEdit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.atual == nil {
		return ErrSemNota
	}
	if len(eds) != len(m.atual.Nota.Itens) {
		return fmt.Errorf("%w: %d edições para %d itens",
			edits.ErrQtdEdicoes, len(eds), len(m.atual.Nota.Itens))
	}
	s := *m.atual
	s.Edicoes = eds
	m.atual = &s
	return nil
}

// SetCgcCliente troca o identificador do cliente usado no envio.
// O valor é normalizado com a mesma regra de padding do destinatário.
func (m *Manager) SetCgcCliente(raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.atual == nil {
		return ErrSemNota
	}
	if nfe.DocumentoSuspeito(raw) {
		slog.Warn("documento de cliente com tamanho atípico, será completado com zeros",
			"cgc_cliente", raw,
		)
	}
	s := *m.atual
	s.CgcCliente = nfe.FormatDocumento(raw)
	m.atual = &s
	return nil
}

// Efetiva devolve a nota com as edições aplicadas. Recalculada a cada
// chamada; nunca armazenada.
func (m *Manager) Efetiva() (nfe.NotaFiscal, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.atual == nil {
		return nfe.NotaFiscal{}, "", ErrSemNota
	}
	efetiva, err := edits.Apply(*m.atual.Nota, m.atual.Edicoes)
	if err != nil {
		return nfe.NotaFiscal{}, "", err
	}
	return efetiva, m.atual.CgcCliente, nil
}
