package migrations

import (
	"database/sql"
	"fmt"
)

// Run executa todas as migrations necessárias no banco da aplicação.
func Run(db *sql.DB) error {
	stmts := []string{
		// envio: auditoria das tentativas de envio ao WMS
		`
CREATE TABLE IF NOT EXISTS envio (
    id BIGSERIAL PRIMARY KEY,

    chave_acesso CHAR(44),
    numero VARCHAR(20) NOT NULL,
    serie VARCHAR(10),
    cgc_cliente CHAR(14),

    origem VARCHAR(10) NOT NULL,
    etapa VARCHAR(20) NOT NULL,
    status VARCHAR(30) NOT NULL,
    detalhe TEXT,

    enviado_em TIMESTAMP(3) NOT NULL,
    created_at TIMESTAMP(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3)
);
`,
		`CREATE INDEX IF NOT EXISTS idx_envio_chave ON envio (chave_acesso);`,
		`CREATE INDEX IF NOT EXISTS idx_envio_enviado_em ON envio (enviado_em);`,
		`CREATE INDEX IF NOT EXISTS idx_envio_status ON envio (status);`,
	}

	for i, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("erro executando migration %d: %w", i+1, err)
		}
	}

	return nil
}
