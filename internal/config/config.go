package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost    string
	DBPort    int
	DBUser    string
	DBPass    string
	DBName    string
	DBSSLMode string

	LogLevel string

	// Integração WMS
	WMSURLCadastro    string
	WMSURLRecebimento string
	WMSURLRelay       string
	WMSToken          string
	WMSTokenHeader    string

	// API interativa
	APIAddr string

	ProjectDir    string
	IncomingDir   string
	ProcessingDir string
	ProcessedDir  string
	FailedDir     string
	IgnoredDir    string
}

// Load carrega variáveis de ambiente, tentando ler .env se existir.
func Load() (*Config, error) {
	// .env é opcional: se existir, carrega
	_ = godotenv.Load()

	getOpt := func(key, def string) string {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		return v
	}

	// Banco (só worker e migrator usam; os outros binários ignoram)
	host := getOpt("NFE_BRIDGE_DB_HOST", "localhost")
	portStr := getOpt("NFE_BRIDGE_DB_PORT", "5432")
	user := getOpt("NFE_BRIDGE_DB_USER", "nfe_bridge")
	pass := getOpt("NFE_BRIDGE_DB_PASSWORD", "")
	name := getOpt("NFE_BRIDGE_DB_NAME", "nfe_bridge")
	sslmode := getOpt("NFE_BRIDGE_DB_SSLMODE", "disable")

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("NFE_BRIDGE_DB_PORT inválido: %w", err)
	}

	// WMS: lidos aqui, validados por ValidaWMS só nos binários que falam
	// com o WMS (o migrator sobe sem nenhuma variável do WMS)
	urlCadastro := getOpt("NFE_BRIDGE_WMS_URL_CADPRODUTO", "")
	urlRecebimento := getOpt("NFE_BRIDGE_WMS_URL_RECEBIMENTO", "")
	urlRelay := getOpt("NFE_BRIDGE_WMS_URL_RELAY", "")
	token := getOpt("NFE_BRIDGE_WMS_TOKEN", "")
	tokenHeader := getOpt("NFE_BRIDGE_WMS_TOKEN_HEADER", "X-Auth-Token")

	logLevel := getOpt("LOG_LEVEL", "info")
	apiAddr := getOpt("NFE_BRIDGE_API_ADDR", ":8080")

	// Diretório do projeto (base pros paths relativos)
	projectDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("não foi possível obter diretório de trabalho (pwd): %w", err)
	}
	projectDir, err = filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("erro resolvendo diretório de trabalho: %w", err)
	}

	// Diretórios (podem ser relativos ou absolutos; se relativos, base = projectDir)
	incoming := resolveDir(projectDir, getOpt("INCOMING_DIR", "./incoming"))
	processing := resolveDir(projectDir, getOpt("PROCESSING_DIR", "./processing"))
	processed := resolveDir(projectDir, getOpt("PROCESSED_DIR", "./processed"))
	failed := resolveDir(projectDir, getOpt("FAILED_DIR", "./failed"))
	ignored := resolveDir(projectDir, getOpt("IGNORED_DIR", "./ignored"))

	cfg := &Config{
		DBHost:    host,
		DBPort:    port,
		DBUser:    user,
		DBPass:    pass,
		DBName:    name,
		DBSSLMode: sslmode,

		LogLevel: logLevel,

		WMSURLCadastro:    urlCadastro,
		WMSURLRecebimento: urlRecebimento,
		WMSURLRelay:       urlRelay,
		WMSToken:          token,
		WMSTokenHeader:    tokenHeader,

		APIAddr: apiAddr,

		ProjectDir:    projectDir,
		IncomingDir:   incoming,
		ProcessingDir: processing,
		ProcessedDir:  processed,
		FailedDir:     failed,
		IgnoredDir:    ignored,
	}

	return cfg, nil
}

// ValidaWMS confere os endpoints obrigatórios da integração. Os dois
// envios JSON precisam de URL; o relay continua opcional.
func (c *Config) ValidaWMS() error {
	if c.WMSURLCadastro == "" {
		return fmt.Errorf("variável de ambiente obrigatória ausente: NFE_BRIDGE_WMS_URL_CADPRODUTO")
	}
	if c.WMSURLRecebimento == "" {
		return fmt.Errorf("variável de ambiente obrigatória ausente: NFE_BRIDGE_WMS_URL_RECEBIMENTO")
	}
	return nil
}

// resolveDir:
// - Se path for absoluto -> devolve como está.
// - Se path for relativo -> junta com baseDir.
func resolveDir(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// DSN monta a string de conexão no formato "host=... port=... user=...".
func (c *Config) DSN(dbName string) string {
	base := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		dbName,
		c.DBSSLMode,
	)

	if c.DBPass != "" {
		base += fmt.Sprintf(" password=%s", c.DBPass)
	}

	return base
}

// AppDSN retorna o DSN para o banco da aplicação (NFE_BRIDGE_DB_NAME).
func (c *Config) AppDSN() string {
	return c.DSN(c.DBName)
}

// AdminDSN retorna o DSN para o banco "postgres" (admin), usado para criar o DB da aplicação.
func (c *Config) AdminDSN() string {
	return c.DSN("postgres")
}
