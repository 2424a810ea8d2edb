// Package psu define la identidad del PSU y la lógica de reconciliación
// contra la lista de identidades ya asociadas a un consent o payment.
package psu

import "strings"

// Identity identifica a un PSU (Payment Service User).
// Todos los campos son opcionales; un campo vacío significa "no seteado".
// La igualdad es campo a campo (ver Equals).
type Identity struct {
	ID              string `json:"psu_id,omitempty"`
	IDType          string `json:"psu_id_type,omitempty"`
	CorporateID     string `json:"psu_corporate_id,omitempty"`
	CorporateIDType string `json:"psu_corporate_id_type,omitempty"`
}

// IsEmpty indica si la identidad no tiene ningún campo seteado.
// Una identidad vacía nunca se vincula a un consent/payment.
func (p Identity) IsEmpty() bool {
	return strings.TrimSpace(p.ID) == "" &&
		strings.TrimSpace(p.CorporateID) == ""
}

// Equals compara dos identidades campo a campo.
// Cadenas vacías cuentan como "no seteado" y solo igualan a otra vacía.
func (p Identity) Equals(other Identity) bool {
	return norm(p.ID) == norm(other.ID) &&
		norm(p.IDType) == norm(other.IDType) &&
		norm(p.CorporateID) == norm(other.CorporateID) &&
		norm(p.CorporateIDType) == norm(other.CorporateIDType)
}

func norm(s string) string { return strings.TrimSpace(s) }

// String retorna una representación corta para logs (solo el psu_id).
func (p Identity) String() string {
	if p.ID != "" {
		return p.ID
	}
	if p.CorporateID != "" {
		return "corp:" + p.CorporateID
	}
	return "<empty>"
}
