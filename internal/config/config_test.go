package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfe-bridge/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, "X-Auth-Token", cfg.WMSTokenHeader)
	assert.Empty(t, cfg.WMSURLRelay, "relay é opcional")

	// diretórios relativos ancoram no diretório de trabalho
	assert.Contains(t, cfg.IncomingDir, cfg.ProjectDir)
}

// TestValidaWMS: Load sobe sem nenhuma variável do WMS (o migrator
// depende disso); quem fala com o WMS valida explicitamente.
func TestValidaWMS(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err, "Load não exige as URLs do WMS")

	err = cfg.ValidaWMS()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NFE_BRIDGE_WMS_URL_CADPRODUTO")

	t.Setenv("NFE_BRIDGE_WMS_URL_CADPRODUTO", "http://wms.local/cadproduto")
	cfg, err = config.Load()
	require.NoError(t, err)
	err = cfg.ValidaWMS()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NFE_BRIDGE_WMS_URL_RECEBIMENTO")

	t.Setenv("NFE_BRIDGE_WMS_URL_RECEBIMENTO", "http://wms.local/recebimento")
	cfg, err = config.Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidaWMS())
}

func TestLoad_PortaInvalida(t *testing.T) {
	t.Setenv("NFE_BRIDGE_DB_PORT", "abc")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	t.Setenv("NFE_BRIDGE_DB_HOST", "db.interno")
	t.Setenv("NFE_BRIDGE_DB_USER", "integrador")
	t.Setenv("NFE_BRIDGE_DB_PASSWORD", "s3gr3do")
	t.Setenv("NFE_BRIDGE_DB_NAME", "nfe_bridge")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t,
		"host=db.interno port=5432 user=integrador dbname=nfe_bridge sslmode=disable password=s3gr3do",
		cfg.AppDSN())
	assert.Contains(t, cfg.AdminDSN(), "dbname=postgres", "migrator conecta no banco admin")
}
