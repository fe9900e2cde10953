package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Confirmação manda em TRUNCATE da auditoria: default é não.
func TestRespostaAfirmativa(t *testing.T) {
	afirmativas := []string{"s", "S", "sim", "SIM", "y", "yes", "  sim  \n"}
	for _, in := range afirmativas {
		assert.True(t, respostaAfirmativa(in), "%q deve confirmar", in)
	}

	negativas := []string{"", "\n", "n", "não", "nao", "no", "qualquer coisa"}
	for _, in := range negativas {
		assert.False(t, respostaAfirmativa(in), "%q não pode confirmar", in)
	}
}
