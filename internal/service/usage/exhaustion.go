package usage

import (
	consentdom "github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/profile"
)

// exhausted decide si un consent one-off agotó todas sus lecturas.
//
// Clasificación por tipo de acceso:
//   - BankOffered: todavía no hay cuentas elegidas, nunca expira por esta vía.
//   - AllAvailableAccounts: solo el endpoint de lista de cuentas tiene
//     sentido; expira tras exactamente una llamada.
//   - Global / DedicatedAccounts: por cada resource id otorgado se computa
//     el máximo de llamadas permitidas y se compara contra lo usado; el
//     consent expira solo cuando *todos* los recursos están agotados.
func exhausted(c *consentdom.Consent, usages []*consentdom.Usage, set profile.Settings) bool {
	switch c.Access.RequestType() {
	case consentdom.RequestTypeBankOffered:
		return false
	case consentdom.RequestTypeAllAvailableAccounts:
		return totalUsed(usages) >= 1
	}

	resources := c.Access.ResourceIDs()
	if len(resources) == 0 {
		// Global sin cuentas referenciadas aún: nada registrable que agotar.
		return false
	}

	beneficiariesUsed := beneficiariesTotal(usages)
	for _, resourceID := range resources {
		entitled := entitledCalls(c, resourceID, usages, set)
		used := resourceTotal(usages, resourceID) + beneficiariesUsed
		if used < entitled {
			return false
		}
	}
	return true
}

// entitledCalls computa el máximo de llamadas permitidas para un recurso.
//
// Base: 1 por el detalle de cuenta, +1 si hay acceso a balances, +1 si el
// endpoint de trusted beneficiaries está habilitado para este consent.
// Con acceso a transactions se suma además, por cada booking status que el
// banco sirve, el máximo de páginas visto en los usage records (default 1
// por status si no se vio ninguno), más un uso por cada registro de detalle
// de transacción consultado.
func entitledCalls(c *consentdom.Consent, resourceID string, usages []*consentdom.Usage, set profile.Settings) int {
	global := c.Access.RequestType() == consentdom.RequestTypeGlobal
	hasBalances := global || c.Access.HasBalances(resourceID)
	hasTransactions := global || c.Access.HasTransactions(resourceID)

	entitled := 1
	if hasBalances {
		entitled++
	}
	if beneficiariesEntitled(c, set) {
		entitled++
	}
	if !hasTransactions {
		return entitled
	}
	return entitled + transactionPages(resourceID, usages, set) + transactionRecords(resourceID, usages)
}

// beneficiariesEntitled: el endpoint de trusted beneficiaries cuenta solo si
// el perfil lo soporta y el consent es global o lo otorga explícitamente en
// additional-information.
func beneficiariesEntitled(c *consentdom.Consent, set profile.Settings) bool {
	if !set.TrustedBeneficiariesSupported {
		return false
	}
	return c.Access.RequestType() == consentdom.RequestTypeGlobal || c.Access.TrustedBeneficiaries
}

// transactionPages suma, por booking status configurado, el máximo de
// páginas visto para el recurso; 1 por status si no se registró ninguno.
func transactionPages(resourceID string, usages []*consentdom.Usage, set profile.Settings) int {
	total := 0
	for _, bs := range set.AvailableBookingStatuses {
		maxPages := 0
		for _, u := range usages {
			if u.ResourceID != resourceID || u.BookingStatus != bs {
				continue
			}
			if u.TotalPages > maxPages {
				maxPages = u.TotalPages
			}
		}
		if maxPages == 0 {
			maxPages = 1
		}
		total += maxPages
	}
	return total
}

// transactionRecords cuenta los detalles de transacción distintos
// consultados para el recurso.
func transactionRecords(resourceID string, usages []*consentdom.Usage) int {
	seen := make(map[string]struct{})
	for _, u := range usages {
		if u.ResourceID != resourceID || u.TransactionID == "" {
			continue
		}
		seen[u.TransactionID] = struct{}{}
	}
	return len(seen)
}

// resourceTotal suma los contadores de uso del recurso, excluyendo el
// endpoint de beneficiaries (que se comparte entre todos los recursos).
func resourceTotal(usages []*consentdom.Usage, resourceID string) int {
	total := 0
	for _, u := range usages {
		if u.ResourceID != resourceID || isBeneficiariesUsage(u) {
			continue
		}
		total += u.Counter
	}
	return total
}

// beneficiariesTotal suma los usos del endpoint de trusted beneficiaries.
func beneficiariesTotal(usages []*consentdom.Usage) int {
	total := 0
	for _, u := range usages {
		if isBeneficiariesUsage(u) {
			total += u.Counter
		}
	}
	return total
}

// totalUsed suma todos los contadores del consent.
func totalUsed(usages []*consentdom.Usage) int {
	total := 0
	for _, u := range usages {
		total += u.Counter
	}
	return total
}
