// Package dto define los request/response de la API y su traducción hacia y
// desde el dominio. Las fechas de validez viajan como "YYYY-MM-DD"; los
// timestamps como RFC 3339.
package dto

import (
	"time"

	consentdom "github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/domain/psu"
)

// dateLayout es el formato de validUntil en el wire.
const dateLayout = "2006-01-02"

// AccountReference referencia una cuenta en el wire.
type AccountReference struct {
	ResourceID string `json:"resourceId,omitempty"`
	Iban       string `json:"iban,omitempty"`
	Currency   string `json:"currency,omitempty"`
}

// AccountAccess es el scope de acceso en el wire.
type AccountAccess struct {
	Accounts     []AccountReference `json:"accounts,omitempty"`
	Balances     []AccountReference `json:"balances,omitempty"`
	Transactions []AccountReference `json:"transactions,omitempty"`

	AllPsd2              bool `json:"allPsd2,omitempty"`
	AvailableAccounts    bool `json:"availableAccounts,omitempty"`
	TrustedBeneficiaries bool `json:"trustedBeneficiaries,omitempty"`
}

// PsuIdentity es la identidad PSU en el wire (headers PSU-* aplanados).
type PsuIdentity struct {
	PsuID              string `json:"psuId,omitempty"`
	PsuIDType          string `json:"psuIdType,omitempty"`
	PsuCorporateID     string `json:"psuCorporateId,omitempty"`
	PsuCorporateIDType string `json:"psuCorporateIdType,omitempty"`
}

// CreateConsentRequest crea un consent.
type CreateConsentRequest struct {
	ConsentType string `json:"consentType,omitempty"` // default "ais"

	Access AccountAccess `json:"access"`

	RecurringIndicator bool   `json:"recurringIndicator"`
	OneAccessType      bool   `json:"oneAccessType,omitempty"`
	ValidUntil         string `json:"validUntil,omitempty"`
	FrequencyPerDay    *int   `json:"frequencyPerDay"`

	Psu PsuIdentity `json:"psu,omitempty"`

	TppAuthorisationNumber string `json:"tppAuthorisationNumber"`
	TppRedirectURI         string `json:"tppRedirectUri,omitempty"`
	TppNokRedirectURI      string `json:"tppNokRedirectUri,omitempty"`
}

// ConsentResponse es la vista pública de un consent.
type ConsentResponse struct {
	ConsentID     string `json:"consentId"`
	ConsentStatus string `json:"consentStatus"`
	ConsentType   string `json:"consentType"`

	Access AccountAccess `json:"access"`

	RecurringIndicator bool   `json:"recurringIndicator"`
	OneAccessType      bool   `json:"oneAccessType,omitempty"`
	ValidUntil         string `json:"validUntil,omitempty"`
	FrequencyPerDay    int    `json:"frequencyPerDay"`
	LastActionDate     string `json:"lastActionDate,omitempty"`

	Psus []PsuIdentity `json:"psus,omitempty"`
}

// ConsentStatusResponse reporta solo el estado.
type ConsentStatusResponse struct {
	ConsentStatus string `json:"consentStatus"`
}

// UpdateConsentStatusRequest cambia el estado explícitamente.
type UpdateConsentStatusRequest struct {
	ConsentStatus string `json:"consentStatus"`
}

// UpdateAccessRequest mergea scope adicional sobre el consent.
type UpdateAccessRequest struct {
	Access AccountAccess `json:"access"`
}

// RecordUsageRequest contabiliza un uso de endpoint.
type RecordUsageRequest struct {
	RequestURI    string `json:"requestUri"`
	ResourceID    string `json:"resourceId,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	BookingStatus string `json:"bookingStatus,omitempty"`
	TotalPages    int    `json:"totalPages,omitempty"`
}

// ToDomain traduce el access del wire al dominio.
func (a AccountAccess) ToDomain() consentdom.AccountAccess {
	return consentdom.AccountAccess{
		Accounts:             refsToDomain(a.Accounts),
		Balances:             refsToDomain(a.Balances),
		Transactions:         refsToDomain(a.Transactions),
		AllPsd2:              a.AllPsd2,
		AvailableAccounts:    a.AvailableAccounts,
		TrustedBeneficiaries: a.TrustedBeneficiaries,
	}
}

// ToDomain traduce la identidad PSU del wire al dominio.
func (p PsuIdentity) ToDomain() psu.Identity {
	return psu.Identity{
		ID:              p.PsuID,
		IDType:          p.PsuIDType,
		CorporateID:     p.PsuCorporateID,
		CorporateIDType: p.PsuCorporateIDType,
	}
}

// ParseValidUntil interpreta validUntil; vacío retorna cero.
func (r CreateConsentRequest) ParseValidUntil() (time.Time, error) {
	if r.ValidUntil == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, r.ValidUntil)
}

// NewConsentResponse proyecta un consent del dominio con su token opaco.
func NewConsentResponse(token string, c *consentdom.Consent) ConsentResponse {
	resp := ConsentResponse{
		ConsentID:          token,
		ConsentStatus:      string(c.Status),
		ConsentType:        string(c.Type),
		Access:             accessFromDomain(c.Access),
		RecurringIndicator: c.Recurring,
		OneAccessType:      c.OneAccessType,
		FrequencyPerDay:    c.FrequencyPerDay,
	}
	if !c.ValidUntil.IsZero() {
		resp.ValidUntil = c.ValidUntil.Format(dateLayout)
	}
	if !c.LastActionDate.IsZero() {
		resp.LastActionDate = c.LastActionDate.Format(time.RFC3339)
	}
	for _, p := range c.Psus {
		resp.Psus = append(resp.Psus, psuFromDomain(p))
	}
	return resp
}

func refsToDomain(refs []AccountReference) []consentdom.AccountReference {
	if len(refs) == 0 {
		return nil
	}
	out := make([]consentdom.AccountReference, 0, len(refs))
	for _, r := range refs {
		out = append(out, consentdom.AccountReference{
			ResourceID: r.ResourceID,
			Iban:       r.Iban,
			Currency:   r.Currency,
		})
	}
	return out
}

func refsFromDomain(refs []consentdom.AccountReference) []AccountReference {
	if len(refs) == 0 {
		return nil
	}
	out := make([]AccountReference, 0, len(refs))
	for _, r := range refs {
		out = append(out, AccountReference{
			ResourceID: r.ResourceID,
			Iban:       r.Iban,
			Currency:   r.Currency,
		})
	}
	return out
}

func accessFromDomain(a consentdom.AccountAccess) AccountAccess {
	return AccountAccess{
		Accounts:             refsFromDomain(a.Accounts),
		Balances:             refsFromDomain(a.Balances),
		Transactions:         refsFromDomain(a.Transactions),
		AllPsd2:              a.AllPsd2,
		AvailableAccounts:    a.AvailableAccounts,
		TrustedBeneficiaries: a.TrustedBeneficiaries,
	}
}

func psuFromDomain(p psu.Identity) PsuIdentity {
	return PsuIdentity{
		PsuID:              p.ID,
		PsuIDType:          p.IDType,
		PsuCorporateID:     p.CorporateID,
		PsuCorporateIDType: p.CorporateIDType,
	}
}
