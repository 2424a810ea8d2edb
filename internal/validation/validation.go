// Package validation contiene validaciones de formato de campos de entrada.
package validation

import "regexp"

// tppAuthNumberRE: authorisation number estilo NCA (ej: PSDES-BDE-3DFD21).
// Aceptamos un formato laxo: bloques alfanuméricos separados por guiones.
var tppAuthNumberRE = regexp.MustCompile(`^[A-Za-z0-9]+(?:-[A-Za-z0-9]+)*$`)

// ValidTppAuthorisationNumber valida el authorisation number de un TPP.
func ValidTppAuthorisationNumber(s string) bool {
	return s != "" && len(s) <= 64 && tppAuthNumberRE.MatchString(s)
}

// psuIDTypes son los id-types Berlin Group conocidos. Vacío es válido
// (type no provisto).
var psuIDTypes = map[string]bool{
	"":          true,
	"email":     true,
	"login":     true,
	"msisdn":    true,
	"personal":  true,
	"corporate": true,
}

// ValidPsuIDType valida el psu_id_type declarado por el TPP.
func ValidPsuIDType(s string) bool {
	return psuIDTypes[s]
}

// instanceIDRE: slug corto minúsculas/dígitos/guiones.
var instanceIDRE = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}[a-z0-9]$|^[a-z0-9]$`)

// ValidInstanceID valida el ID de instancia (tenant) del header.
func ValidInstanceID(s string) bool {
	return instanceIDRE.MatchString(s)
}
