package nfe

import "strings"

// FormatDocumento normaliza CPF/CNPJ pra largura fixa de dígitos:
//   - tira tudo que não é dígito;
//   - 0 ou 11 dígitos (CPF) passam como estão;
//   - mais de 14 trunca nos 14 primeiros;
//   - o resto ganha zero à esquerda até 14 (CNPJ).
//
// Não valida dígito verificador: entrada torta sai com o formato certo
// e o conteúdo errado mesmo. Quem chama pode usar DocumentoSuspeito
// pra logar o caso.
func FormatDocumento(raw string) string {
	d := soDigitos(raw)
	switch {
	case len(d) == 0 || len(d) == 11 || len(d) == 14:
		return d
	case len(d) > 14:
		return d[:14]
	default:
		return strings.Repeat("0", 14-len(d)) + d
	}
}

// DocumentoSuspeito diz se o documento vai ser "corrigido" pelo padding,
// ou seja, não tem tamanho de CPF nem de CNPJ (nem é vazio).
func DocumentoSuspeito(raw string) bool {
	n := len(soDigitos(raw))
	return n != 0 && n != 11 && n != 14
}

func soDigitos(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
