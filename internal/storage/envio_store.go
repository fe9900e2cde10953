package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Envio é o registro de auditoria de uma tentativa de envio ao WMS.
// Só o resultado fica no banco; o XML em si nunca é persistido.
type Envio struct {
	ChaveAcesso string
	Numero      string
	Serie       string
	CgcCliente  string
	Origem      string // api | fila
	Etapa       string // cadproduto | recebimento | relay | completo
	Status      string // success | transport_error | format_error
	Detalhe     string
	EnviadoEm   time.Time
}

// SaveEnvio insere o registro de auditoria. Falha aqui não pode derrubar
// o fluxo de envio: o chamador loga e segue.
func SaveEnvio(db *sql.DB, e Envio) error {
	const q = `
INSERT INTO envio (
	chave_acesso,
	numero,
	serie,
	cgc_cliente,
	origem,
	etapa,
	status,
	detalhe,
	enviado_em
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9
);
`

	enviadoEm := e.EnviadoEm
	if enviadoEm.IsZero() {
		enviadoEm = time.Now()
	}

	_, err := db.Exec(
		q,
		nullableString(e.ChaveAcesso),
		e.Numero,
		nullableString(e.Serie),
		nullableString(e.CgcCliente),
		e.Origem,
		e.Etapa,
		e.Status,
		nullableString(e.Detalhe),
		enviadoEm,
	)
	if err != nil {
		return fmt.Errorf("erro inserindo envio (numero=%s chave=%s): %w", e.Numero, e.ChaveAcesso, err)
	}

	slog.Info("envio registrado no banco",
		"numero", e.Numero,
		"chave", e.ChaveAcesso,
		"etapa", e.Etapa,
		"status", e.Status,
	)

	return nil
}

// UltimosEnvios lista os envios mais recentes de uma chave de acesso,
// do mais novo pro mais velho.
func UltimosEnvios(db *sql.DB, chaveAcesso string, limite int) ([]Envio, error) {
	const q = `
SELECT chave_acesso, numero, serie, cgc_cliente, origem, etapa, status, COALESCE(detalhe, ''), enviado_em
FROM envio
WHERE chave_acesso = $1
ORDER BY enviado_em DESC
LIMIT $2;
`

	rows, err := db.Query(q, chaveAcesso, limite)
	if err != nil {
		return nil, fmt.Errorf("erro consultando envios (chave=%s): %w", chaveAcesso, err)
	}
	defer rows.Close()

	var out []Envio
	for rows.Next() {
		var e Envio
		var serie, cgc sql.NullString
		if err := rows.Scan(&e.ChaveAcesso, &e.Numero, &serie, &cgc, &e.Origem, &e.Etapa, &e.Status, &e.Detalhe, &e.EnviadoEm); err != nil {
			return nil, fmt.Errorf("erro lendo envio: %w", err)
		}
		e.Serie = serie.String
		e.CgcCliente = cgc.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableString(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}
