package consent_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	consentdom "github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/domain/psu"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
	"github.com/dropDatabas3/consentd/internal/profile"
	consentsvc "github.com/dropDatabas3/consentd/internal/service/consent"
	"github.com/dropDatabas3/consentd/internal/service/expiration"
	"github.com/dropDatabas3/consentd/internal/store/adapters/memory"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, set profile.Settings) (*consentsvc.Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	prov := profile.Static{S: set}
	svc := consentsvc.New(st, prov, expiration.New(prov)).WithClock(func() time.Time { return testNow })
	return svc, st
}

func intPtr(v int) *int { return &v }

func baseCreate() consentsvc.CreateRequest {
	return consentsvc.CreateRequest{
		InstanceID:             "default",
		Type:                   consentdom.TypeAccountInformation,
		FrequencyPerDay:        intPtr(4),
		Recurring:              true,
		Psu:                    psu.Identity{ID: "P1"},
		TppAuthorisationNumber: "PSDES-BDE-3DFD21",
		ValidUntil:             testNow.AddDate(0, 0, 30),
	}
}

func TestCreate_FrequencyPerDayRequired(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{})

	req := baseCreate()
	req.FrequencyPerDay = nil

	_, err := svc.Create(context.Background(), req)
	require.ErrorIs(t, err, consentsvc.ErrFrequencyPerDayRequired)

	// Nada persistido.
	out, err := st.Consents().FindByPsuAndTpp(context.Background(), repository.ConsentFilter{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCreate_ValidUntilClamp(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t, profile.Settings{MaxConsentValidityDays: 90})

	req := baseCreate()
	req.ValidUntil = testNow.AddDate(1, 0, 0)

	c, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	// Hoy cuenta como día usable: hoy + (90 − 1).
	want := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 89)
	assert.Equal(t, want, c.ValidUntil)
}

func TestCreate_ValidUntilWithinLimitKept(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t, profile.Settings{MaxConsentValidityDays: 90})

	req := baseCreate()
	c, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.ValidUntil, c.ValidUntil)
	assert.Equal(t, consentdom.StatusReceived, c.Status)
	require.Len(t, c.Psus, 1)
	assert.Equal(t, "P1", c.Psus[0].ID)
}

func TestUpdateStatus_TerminalIsImmutable(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t, profile.Settings{})

	c, err := svc.Create(context.Background(), baseCreate())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), c.ID, consentdom.StatusRejected)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), c.ID, consentdom.StatusValid)
	assert.ErrorIs(t, err, consentsvc.ErrStatusFinalised)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t, profile.Settings{})

	c, err := svc.Create(context.Background(), baseCreate())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), c.ID, consentdom.Status("garbage"))
	assert.ErrorIs(t, err, consentsvc.ErrUnknownStatus)
}

func TestGetStatus_WatchdogRejectsStaleConsent(t *testing.T) {
	t.Parallel()
	// Periodo de confirmación de 5 minutos; el consent fue creado hace 10.
	svc, _ := newService(t, profile.Settings{NotConfirmedExpiration: 5 * time.Minute})

	c, err := svc.Create(context.Background(), baseCreate())
	require.NoError(t, err)

	later := svc.WithClock(func() time.Time { return testNow.Add(10 * time.Minute) })
	status, err := later.GetStatus(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusRejected, status)
}

func TestUpdateAccess_MergeNeverShrinks(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t, profile.Settings{})

	req := baseCreate()
	req.Access = consentdom.AccountAccess{
		Accounts: []consentdom.AccountReference{{ResourceID: "r1"}},
		Balances: []consentdom.AccountReference{{ResourceID: "r1"}},
	}
	c, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	got, err := svc.UpdateAccess(context.Background(), c.ID, consentdom.AccountAccess{
		Transactions:         []consentdom.AccountReference{{ResourceID: "r2"}},
		TrustedBeneficiaries: true,
	})
	require.NoError(t, err)

	assert.True(t, got.Access.TrustedBeneficiaries)
	assert.Len(t, got.Access.Balances, 1)
	assert.Len(t, got.Access.Transactions, 1)
	// La lista paraguas retiene r1 y suma r2.
	assert.Len(t, got.Access.Accounts, 2)
}

func TestTerminateOldConsents_ValidBecomesTerminatedByTpp(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t, profile.Settings{})
	ctx := context.Background()

	old, err := svc.Create(ctx, baseCreate())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, old.ID, consentdom.StatusValid)
	require.NoError(t, err)

	niu, err := svc.Create(ctx, baseCreate())
	require.NoError(t, err)

	changed, err := svc.FindAndTerminateOldConsents(ctx, niu.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := svc.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusTerminatedByTpp, got.Status)

	// El nuevo queda intacto.
	gotNew, err := svc.Get(ctx, niu.ID)
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusReceived, gotNew.Status)
}

func TestTerminateOldConsents_ReceivedBecomesRejected(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t, profile.Settings{})
	ctx := context.Background()

	old, err := svc.Create(ctx, baseCreate())
	require.NoError(t, err)

	niu, err := svc.Create(ctx, baseCreate())
	require.NoError(t, err)

	changed, err := svc.FindAndTerminateOldConsents(ctx, niu.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := svc.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusRejected, got.Status)
}

func TestTerminateOldConsents_OneAccessTypeIsNoop(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t, profile.Settings{})
	ctx := context.Background()

	old, err := svc.Create(ctx, baseCreate())
	require.NoError(t, err)

	req := baseCreate()
	req.OneAccessType = true
	niu, err := svc.Create(ctx, req)
	require.NoError(t, err)

	changed, err := svc.FindAndTerminateOldConsents(ctx, niu.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := svc.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusReceived, got.Status)
}

func TestTerminateOldConsents_MissingPsuIsFatal(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t, profile.Settings{})
	ctx := context.Background()

	req := baseCreate()
	req.Psu = psu.Identity{}
	niu, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.FindAndTerminateOldConsents(ctx, niu.ID)
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestTerminateOldConsents_PsuSetMustMatchExactly(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{})
	ctx := context.Background()

	// Viejo con {P1,P2}; nuevo con {P1}: el set no iguala, sobrevive.
	old, err := svc.Create(ctx, baseCreate())
	require.NoError(t, err)
	stored, err := svc.Get(ctx, old.ID)
	require.NoError(t, err)
	stored.Psus = append(stored.Psus, psu.Identity{ID: "P2"})
	require.NoError(t, st.Consents().Update(ctx, stored))

	// Otro TPP, mismo PSU: también sobrevive.
	reqOther := baseCreate()
	reqOther.TppAuthorisationNumber = "PSDES-BDE-OTHER1"
	other, err := svc.Create(ctx, reqOther)
	require.NoError(t, err)

	niu, err := svc.Create(ctx, baseCreate())
	require.NoError(t, err)

	changed, err := svc.FindAndTerminateOldConsents(ctx, niu.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	gotOld, err := svc.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusReceived, gotOld.Status, "superset PSU list must survive")

	gotOther, err := svc.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusReceived, gotOther.Status, "different TPP must survive")
}
