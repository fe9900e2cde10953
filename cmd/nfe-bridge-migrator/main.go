// nfe-bridge-migrator prepara o banco de auditoria da ponte: cria o
// database se não existir, aplica as migrations da tabela envio e
// confere o resultado. Não existe drop/recreate aqui: o banco guarda
// só auditoria de envio, então o pior caso é esvaziar a tabela, e pra
// isso existe --reset-auditoria (com confirmação).
package main

import (
	"bufio"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"nfe-bridge/internal/config"
	"nfe-bridge/internal/migrations"
)

func main() {
	auto := flag.Bool("auto", false, "modo não interativo para automação: cria o banco se não existir e aplica migrations")
	reset := flag.Bool("reset-auditoria", false, "esvazia a tabela envio depois de migrar (pede confirmação; ignorado com --auto)")
	flag.Parse()

	log.Println("[nfe-bridge-migrator] iniciando...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("erro carregando configuração: %v", err)
	}

	garanteDatabase(cfg, *auto)

	appDB, err := sql.Open("pgx", cfg.AppDSN())
	if err != nil {
		log.Fatalf("erro conectando ao banco da aplicação: %v", err)
	}
	defer appDB.Close()

	if err := appDB.Ping(); err != nil {
		log.Fatalf("erro no ping ao banco da aplicação: %v", err)
	}

	log.Println("Aplicando migrations da tabela envio...")
	if err := migrations.Run(appDB); err != nil {
		log.Fatalf("erro executando migrations: %v", err)
	}

	total, ultimo, err := resumoAuditoria(appDB)
	if err != nil {
		log.Fatalf("erro conferindo a tabela envio: %v", err)
	}
	if total == 0 {
		log.Println("Tabela envio pronta, ainda sem registros.")
	} else {
		log.Printf("Tabela envio pronta: %d registros, último envio em %s.",
			total, ultimo.Format("02/01/2006 15:04:05"))
	}

	if *reset && !*auto {
		esvaziaAuditoria(appDB, total)
	}
}

// garanteDatabase cria o database da aplicação quando ele ainda não
// existe. Database existente nunca é tocado.
func garanteDatabase(cfg *config.Config, auto bool) {
	adminDB, err := sql.Open("pgx", cfg.AdminDSN())
	if err != nil {
		log.Fatalf("erro conectando ao Postgres (admin): %v", err)
	}
	defer adminDB.Close()

	if err := adminDB.Ping(); err != nil {
		log.Fatalf("erro no ping ao Postgres (admin): %v", err)
	}
	log.Printf("Conectado ao Postgres admin em %s:%d", cfg.DBHost, cfg.DBPort)

	var exists bool
	err = adminDB.QueryRow(`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1);`, cfg.DBName).Scan(&exists)
	if err != nil {
		log.Fatalf("erro verificando existência do banco %q: %v", cfg.DBName, err)
	}
	if exists {
		return
	}

	if !auto && !askYesNo(fmt.Sprintf("Banco %q não existe. Criar agora? [s/N] ", cfg.DBName)) {
		log.Println("Operação cancelada pelo usuário. Nenhuma alteração foi feita.")
		os.Exit(0)
	}

	log.Printf("Criando banco %q...", cfg.DBName)
	// Cria com UTF8 e template0 pra não herdar lixo estranho.
	stmt := fmt.Sprintf(`CREATE DATABASE "%s" WITH TEMPLATE=template0 ENCODING 'UTF8';`, cfg.DBName)
	if _, err := adminDB.Exec(stmt); err != nil {
		log.Fatalf("erro criando banco %q: %v", cfg.DBName, err)
	}
	log.Printf("Banco %q criado com sucesso.", cfg.DBName)
}

// resumoAuditoria devolve quantos envios estão registrados e a data do
// mais recente, pra conferência pós-migration.
func resumoAuditoria(db *sql.DB) (int64, time.Time, error) {
	var total int64
	var ultimo sql.NullTime
	err := db.QueryRow(`SELECT COUNT(*), MAX(enviado_em) FROM envio;`).Scan(&total, &ultimo)
	if err != nil {
		return 0, time.Time{}, err
	}
	return total, ultimo.Time, nil
}

func esvaziaAuditoria(db *sql.DB, total int64) {
	if total == 0 {
		log.Println("Auditoria já está vazia, nada a fazer.")
		return
	}

	log.Printf("ATENÇÃO: isso apaga os %d registros de envio. O histórico não volta.", total)
	if !askYesNo("Esvaziar a tabela envio? [s/N] ") {
		log.Println("Auditoria mantida.")
		return
	}

	if _, err := db.Exec(`TRUNCATE envio;`); err != nil {
		log.Fatalf("erro esvaziando a tabela envio: %v", err)
	}
	log.Println("Tabela envio esvaziada.")
}

func askYesNo(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return respostaAfirmativa(line)
}

func respostaAfirmativa(line string) bool {
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "s" || line == "sim" || line == "y" || line == "yes"
}
