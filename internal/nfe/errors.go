package nfe

import "fmt"

// ParseError indica XML malformado ou que não tem cara de NF-e.
// Nada é extraído quando esse erro acontece.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("erro de parse do XML: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingFieldError indica campo obrigatório ausente no documento
// (número da nota, destinatário). A nota inteira é rejeitada.
type MissingFieldError struct {
	Campo string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("campo obrigatório ausente na NF-e: %s", e.Campo)
}
