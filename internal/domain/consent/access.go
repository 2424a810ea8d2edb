package consent

// AccountReference identifica una cuenta dentro del scope otorgado.
// ResourceID es el ID interno del recurso en el ASPSP; es la clave que usa
// la contabilidad de usos. IBAN/Currency son informativos.
type AccountReference struct {
	ResourceID string `json:"resource_id"`
	Iban       string `json:"iban,omitempty"`
	Currency   string `json:"currency,omitempty"`
}

// AccountAccess es el scope de acceso otorgado por el consent.
//
// Accounts es la lista "paraguas": toda referencia que aparezca bajo
// balances o transactions debe aparecer también ahí (ver Normalize).
type AccountAccess struct {
	Accounts     []AccountReference `json:"accounts,omitempty"`
	Balances     []AccountReference `json:"balances,omitempty"`
	Transactions []AccountReference `json:"transactions,omitempty"`

	// AllPsd2 marca un consent global (todo el scope PSD2).
	AllPsd2 bool `json:"all_psd2,omitempty"`

	// AvailableAccounts marca un consent de "lista de cuentas disponibles".
	AvailableAccounts bool `json:"available_accounts,omitempty"`

	// TrustedBeneficiaries indica que el grant de additional-information
	// incluye explícitamente el endpoint de trusted beneficiaries.
	TrustedBeneficiaries bool `json:"trusted_beneficiaries,omitempty"`
}

// RequestType clasifica el consent para la contabilidad one-off.
type RequestType string

const (
	RequestTypeGlobal               RequestType = "global"
	RequestTypeAllAvailableAccounts RequestType = "allAvailableAccounts"
	RequestTypeBankOffered          RequestType = "bankOffered"
	RequestTypeDedicatedAccounts    RequestType = "dedicatedAccounts"
)

// RequestType deriva la clase de acceso del consent.
func (a AccountAccess) RequestType() RequestType {
	if a.AllPsd2 {
		return RequestTypeGlobal
	}
	if a.AvailableAccounts {
		return RequestTypeAllAvailableAccounts
	}
	if len(a.Accounts) == 0 && len(a.Balances) == 0 && len(a.Transactions) == 0 {
		return RequestTypeBankOffered
	}
	return RequestTypeDedicatedAccounts
}

// ResourceIDs enumera los resource ids distintos presentes en cualquiera de
// las tres listas, preservando el orden de primera aparición.
func (a AccountAccess) ResourceIDs() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range [][]AccountReference{a.Accounts, a.Balances, a.Transactions} {
		for _, ref := range list {
			if ref.ResourceID == "" {
				continue
			}
			if _, ok := seen[ref.ResourceID]; ok {
				continue
			}
			seen[ref.ResourceID] = struct{}{}
			out = append(out, ref.ResourceID)
		}
	}
	return out
}

// HasBalances indica si el recurso tiene acceso a balances.
func (a AccountAccess) HasBalances(resourceID string) bool {
	return containsResource(a.Balances, resourceID)
}

// HasTransactions indica si el recurso tiene acceso a transactions.
func (a AccountAccess) HasTransactions(resourceID string) bool {
	return containsResource(a.Transactions, resourceID)
}

func containsResource(refs []AccountReference, resourceID string) bool {
	for _, r := range refs {
		if r.ResourceID == resourceID {
			return true
		}
	}
	return false
}

// Normalize re-deriva la lista Accounts como la unión de accounts, balances
// y transactions. Garantiza que una referencia otorgada bajo cualquier
// categoría quede retenida bajo la lista paraguas al persistir un update.
func (a AccountAccess) Normalize() AccountAccess {
	seen := make(map[string]struct{}, len(a.Accounts))
	union := make([]AccountReference, 0, len(a.Accounts))
	for _, list := range [][]AccountReference{a.Accounts, a.Balances, a.Transactions} {
		for _, ref := range list {
			key := ref.ResourceID + "|" + ref.Iban + "|" + ref.Currency
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			union = append(union, ref)
		}
	}
	a.Accounts = union
	return a
}
