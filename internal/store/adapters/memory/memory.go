// Package memory implementa repository.Store en memoria.
//
// Pensado para desarrollo y tests. WithinTx serializa con un mutex global:
// dentro de la transacción hay vista de escritor único, que es la semántica
// que el motor asume del storage.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/consentd/internal/domain/authorisation"
	"github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/domain/payment"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
)

// Store implementa repository.Store en memoria.
type Store struct {
	mu sync.Mutex

	consents       map[string]*consent.Consent
	authorisations map[string]*authorisation.Authorisation
	payments       map[string]*payment.Payment
	usages         map[string]*consent.Usage // key: consentID|date|uri

	// inTx evita re-lockear cuando los repos se usan dentro de WithinTx.
	inTx bool
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		consents:       make(map[string]*consent.Consent),
		authorisations: make(map[string]*authorisation.Authorisation),
		payments:       make(map[string]*payment.Payment),
		usages:         make(map[string]*consent.Usage),
	}
}

func (s *Store) Consents() repository.ConsentRepository             { return &consentRepo{s} }
func (s *Store) Authorisations() repository.AuthorisationRepository { return &authRepo{s} }
func (s *Store) Payments() repository.PaymentRepository             { return &paymentRepo{s} }
func (s *Store) Usages() repository.UsageRepository                 { return &usageRepo{s} }

// WithinTx ejecuta fn bajo el lock global. No hay rollback real: el adapter
// de memoria es para tests, donde un fallo a mitad de cascada termina el
// test de todos modos.
func (s *Store) WithinTx(_ context.Context, fn func(repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	txStore := &Store{
		consents:       s.consents,
		authorisations: s.authorisations,
		payments:       s.payments,
		usages:         s.usages,
		inTx:           true,
	}
	return fn(txStore)
}

func (s *Store) Close() error { return nil }

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// --- consents ---

type consentRepo struct{ s *Store }

func (r *consentRepo) Create(_ context.Context, c *consent.Consent) error {
	defer r.s.lock()()
	if _, ok := r.s.consents[c.ID]; ok {
		return repository.ErrConflict
	}
	cp := *c
	r.s.consents[c.ID] = &cp
	return nil
}

func (r *consentRepo) GetByID(_ context.Context, id string) (*consent.Consent, error) {
	defer r.s.lock()()
	c, ok := r.s.consents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *consentRepo) Update(_ context.Context, c *consent.Consent) error {
	defer r.s.lock()()
	if _, ok := r.s.consents[c.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	r.s.consents[c.ID] = &cp
	return nil
}

func (r *consentRepo) FindByPsuAndTpp(_ context.Context, f repository.ConsentFilter) ([]*consent.Consent, error) {
	defer r.s.lock()()
	var out []*consent.Consent
	for _, c := range r.s.consents {
		if f.InstanceID != "" && c.InstanceID != f.InstanceID {
			continue
		}
		if f.TppAuthorisationNumber != "" && c.TppAuthorisationNumber != f.TppAuthorisationNumber {
			continue
		}
		if len(f.Statuses) > 0 && !statusIn(c.Status, f.Statuses) {
			continue
		}
		if len(f.PsuIDs) > 0 && !hasAllPsuIDs(c, f.PsuIDs) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func statusIn(s consent.Status, set []consent.Status) bool {
	for _, x := range set {
		if s == x {
			return true
		}
	}
	return false
}

func hasAllPsuIDs(c *consent.Consent, ids []string) bool {
	for _, id := range ids {
		found := false
		for _, p := range c.Psus {
			if p.ID == id {
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

// --- authorisations ---

type authRepo struct{ s *Store }

func (r *authRepo) Create(_ context.Context, a *authorisation.Authorisation) error {
	defer r.s.lock()()
	if _, ok := r.s.authorisations[a.ID]; ok {
		return repository.ErrConflict
	}
	cp := *a
	r.s.authorisations[a.ID] = &cp
	return nil
}

func (r *authRepo) GetByID(_ context.Context, id string) (*authorisation.Authorisation, error) {
	defer r.s.lock()()
	a, ok := r.s.authorisations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *authRepo) Update(_ context.Context, a *authorisation.Authorisation) error {
	defer r.s.lock()()
	if _, ok := r.s.authorisations[a.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *a
	r.s.authorisations[a.ID] = &cp
	return nil
}

func (r *authRepo) ListByParent(_ context.Context, parentID string, kind authorisation.Kind) ([]*authorisation.Authorisation, error) {
	defer r.s.lock()()
	var out []*authorisation.Authorisation
	for _, a := range r.s.authorisations {
		if a.ParentID != parentID || a.Kind != kind {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- payments ---

type paymentRepo struct{ s *Store }

func (r *paymentRepo) Create(_ context.Context, p *payment.Payment) error {
	defer r.s.lock()()
	if _, ok := r.s.payments[p.ID]; ok {
		return repository.ErrConflict
	}
	cp := *p
	r.s.payments[p.ID] = &cp
	return nil
}

func (r *paymentRepo) GetByID(_ context.Context, id string) (*payment.Payment, error) {
	defer r.s.lock()()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *paymentRepo) Update(_ context.Context, p *payment.Payment) error {
	defer r.s.lock()()
	if _, ok := r.s.payments[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	r.s.payments[p.ID] = &cp
	return nil
}

// --- usages ---

type usageRepo struct{ s *Store }

func usageKey(consentID string, day time.Time, uri string) string {
	return strings.Join([]string{consentID, day.Format("2006-01-02"), uri}, "|")
}

func (r *usageRepo) Record(_ context.Context, u *consent.Usage) error {
	defer r.s.lock()()
	key := usageKey(u.ConsentID, u.UsageDate, u.RequestURI)
	if existing, ok := r.s.usages[key]; ok {
		existing.Counter++
		existing.ResourceID = u.ResourceID
		existing.TransactionID = u.TransactionID
		if u.BookingStatus != "" {
			existing.BookingStatus = u.BookingStatus
		}
		if u.TotalPages > existing.TotalPages {
			existing.TotalPages = u.TotalPages
		}
		return nil
	}
	cp := *u
	if cp.Counter == 0 {
		cp.Counter = 1
	}
	r.s.usages[key] = &cp
	return nil
}

func (r *usageRepo) ListByConsent(_ context.Context, consentID string) ([]*consent.Usage, error) {
	defer r.s.lock()()
	var out []*consent.Usage
	for _, u := range r.s.usages {
		if u.ConsentID != consentID {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UsageDate.Equal(out[j].UsageDate) {
			return out[i].UsageDate.Before(out[j].UsageDate)
		}
		return out[i].RequestURI < out[j].RequestURI
	})
	return out, nil
}
