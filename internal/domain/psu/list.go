package psu

// IdentityList es el conjunto ordenado de identidades PSU vinculadas a un
// consent o payment. Es append-only: crece de a una identidad por sesión de
// autorización (multi-level SCA) y nunca se reordena ni se deduplica después.
type IdentityList []Identity

// Contains indica si la lista ya tiene una identidad content-equal.
func (l IdentityList) Contains(p Identity) bool {
	for _, e := range l {
		if e.Equals(p) {
			return true
		}
	}
	return false
}

// SetEquals compara dos listas como conjuntos (orden-insensible, match exacto).
// Se usa para detectar consents duplicados: el set completo debe coincidir.
func (l IdentityList) SetEquals(other IdentityList) bool {
	if len(l) != len(other) {
		return false
	}
	matched := make([]bool, len(other))
	for _, e := range l {
		found := false
		for j, o := range other {
			if !matched[j] && e.Equals(o) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Reconcile resuelve una identidad entrante contra la lista.
//
// Casos:
//   - identidad vacía: no hay nada que vincular, retorna (zero, false, lista intacta).
//   - ya existe content-equal: reutiliza la instancia almacenada, lista intacta.
//   - identidad nueva: se agrega al final (enrichment multi-level SCA).
//
// El bool indica si hay identidad vinculada; la lista retornada es la lista
// resultante (posiblemente la misma).
func (l IdentityList) Reconcile(incoming Identity) (Identity, bool, IdentityList) {
	if incoming.IsEmpty() {
		return Identity{}, false, l
	}
	for _, e := range l {
		if e.Equals(incoming) {
			return e, true, l
		}
	}
	return incoming, true, append(l, incoming)
}

// IsRequestCorrect verifica que una identidad recién provista sea compatible
// con la ya vinculada a una authorisation: nil/vacía acepta, idéntica acepta,
// distinta no-vacía rechaza. Evita el secuestro de sesión a mitad del flujo SCA.
func IsRequestCorrect(incoming Identity, bound *Identity) bool {
	if incoming.IsEmpty() || bound == nil || bound.IsEmpty() {
		return true
	}
	return incoming.Equals(*bound)
}
