package usage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	consentdom "github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/profile"
	"github.com/dropDatabas3/consentd/internal/service/usage"
	"github.com/dropDatabas3/consentd/internal/store/adapters/memory"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, set profile.Settings) (*usage.Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := usage.New(st, profile.Static{S: set}).WithClock(func() time.Time { return testNow })
	return svc, st
}

func seedConsent(t *testing.T, st *memory.Store, c *consentdom.Consent) {
	t.Helper()
	if c.ID == "" {
		c.ID = "c1"
	}
	if c.InstanceID == "" {
		c.InstanceID = "default"
	}
	if c.Status == "" {
		c.Status = consentdom.StatusValid
	}
	c.CreatedAt = testNow
	require.NoError(t, st.Consents().Create(context.Background(), c))
}

func TestRecord_RequiresRequestURI(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{})
	seedConsent(t, st, &consentdom.Consent{})

	_, err := svc.Record(context.Background(), "c1", usage.Input{})
	require.Error(t, err)
}

func TestRecord_RejectedConsentNotUsable(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{})
	seedConsent(t, st, &consentdom.Consent{Status: consentdom.StatusRejected})

	_, err := svc.Record(context.Background(), "c1", usage.Input{RequestURI: "/accounts"})
	assert.ErrorIs(t, err, usage.ErrConsentNotUsable)
}

func TestRecord_DailyFrequencyCap(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{})
	seedConsent(t, st, &consentdom.Consent{FrequencyPerDay: 2, Recurring: true})
	ctx := context.Background()

	in := usage.Input{RequestURI: "/accounts/r1", ResourceID: "r1"}
	_, err := svc.Record(ctx, "c1", in)
	require.NoError(t, err)
	_, err = svc.Record(ctx, "c1", in)
	require.NoError(t, err)

	_, err = svc.Record(ctx, "c1", in)
	assert.ErrorIs(t, err, usage.ErrUsageLimitExceeded)

	// Otro endpoint el mismo día sigue permitido.
	_, err = svc.Record(ctx, "c1", usage.Input{RequestURI: "/accounts/r1/balances", ResourceID: "r1"})
	require.NoError(t, err)
}

func TestRecord_AllAvailableAccountsExpiresAfterOneUse(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{})
	seedConsent(t, st, &consentdom.Consent{
		OneAccessType: true,
		Access:        consentdom.AccountAccess{AvailableAccounts: true},
	})

	c, err := svc.Record(context.Background(), "c1", usage.Input{RequestURI: "/accounts"})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusExpired, c.Status)
}

func TestRecord_BankOfferedNeverExpires(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{})
	seedConsent(t, st, &consentdom.Consent{OneAccessType: true})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		c, err := svc.Record(ctx, "c1", usage.Input{RequestURI: "/accounts"})
		require.NoError(t, err)
		assert.Equal(t, consentdom.StatusValid, c.Status)
	}
}

func TestRecord_RecurringNeverAutoExpires(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{})
	seedConsent(t, st, &consentdom.Consent{
		OneAccessType: true,
		Recurring:     true,
		Access: consentdom.AccountAccess{
			Accounts: []consentdom.AccountReference{{ResourceID: "r1"}},
		},
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c, err := svc.Record(ctx, "c1", usage.Input{RequestURI: "/accounts/r1", ResourceID: "r1"})
		require.NoError(t, err)
		assert.Equal(t, consentdom.StatusValid, c.Status)
	}
}

func TestRecord_DedicatedAccountsOnlyExpiresAfterDetailRead(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{})
	seedConsent(t, st, &consentdom.Consent{
		OneAccessType: true,
		Access: consentdom.AccountAccess{
			Accounts: []consentdom.AccountReference{{ResourceID: "r1"}},
		},
	})

	// entitled = 1 (solo detalle de cuenta): un uso agota.
	c, err := svc.Record(context.Background(), "c1", usage.Input{RequestURI: "/accounts/r1", ResourceID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusExpired, c.Status)
}

func TestRecord_BalancesAddsOneEntitledCall(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{})
	seedConsent(t, st, &consentdom.Consent{
		OneAccessType: true,
		Access: consentdom.AccountAccess{
			Accounts: []consentdom.AccountReference{{ResourceID: "r1"}},
			Balances: []consentdom.AccountReference{{ResourceID: "r1"}},
		},
	})
	ctx := context.Background()

	c, err := svc.Record(ctx, "c1", usage.Input{RequestURI: "/accounts/r1", ResourceID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusValid, c.Status)

	c, err = svc.Record(ctx, "c1", usage.Input{RequestURI: "/accounts/r1/balances", ResourceID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusExpired, c.Status)
}

func TestRecord_TransactionsPagesPerBookingStatus(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{
		AvailableBookingStatuses: []consentdom.BookingStatus{
			consentdom.BookingStatusBooked,
			consentdom.BookingStatusPending,
		},
	})
	seedConsent(t, st, &consentdom.Consent{
		OneAccessType: true,
		Access: consentdom.AccountAccess{
			Accounts:     []consentdom.AccountReference{{ResourceID: "r1"}},
			Transactions: []consentdom.AccountReference{{ResourceID: "r1"}},
		},
	})
	ctx := context.Background()

	// entitled = 1 (detalle) + 1 página booked + 1 página pending = 3.
	c, err := svc.Record(ctx, "c1", usage.Input{RequestURI: "/accounts/r1", ResourceID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusValid, c.Status)

	c, err = svc.Record(ctx, "c1", usage.Input{
		RequestURI:    "/accounts/r1/transactions",
		ResourceID:    "r1",
		BookingStatus: consentdom.BookingStatusBooked,
		TotalPages:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusValid, c.Status)

	c, err = svc.Record(ctx, "c1", usage.Input{
		RequestURI:    "/accounts/r1/transactions",
		ResourceID:    "r1",
		BookingStatus: consentdom.BookingStatusPending,
		TotalPages:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusExpired, c.Status)
}

func TestRecord_PaginationExtendsEntitlement(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{
		AvailableBookingStatuses: []consentdom.BookingStatus{consentdom.BookingStatusBooked},
	})
	seedConsent(t, st, &consentdom.Consent{
		OneAccessType: true,
		Access: consentdom.AccountAccess{
			Accounts:     []consentdom.AccountReference{{ResourceID: "r1"}},
			Transactions: []consentdom.AccountReference{{ResourceID: "r1"}},
		},
	})
	ctx := context.Background()

	// La primera página reporta 3 páginas totales: entitled pasa a
	// 1 (detalle) + 3 (páginas booked) = 4.
	c, err := svc.Record(ctx, "c1", usage.Input{
		RequestURI:    "/accounts/r1/transactions?page=1",
		ResourceID:    "r1",
		BookingStatus: consentdom.BookingStatusBooked,
		TotalPages:    3,
	})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusValid, c.Status)

	for _, uri := range []string{
		"/accounts/r1/transactions?page=2",
		"/accounts/r1/transactions?page=3",
	} {
		c, err = svc.Record(ctx, "c1", usage.Input{
			RequestURI:    uri,
			ResourceID:    "r1",
			BookingStatus: consentdom.BookingStatusBooked,
			TotalPages:    3,
		})
		require.NoError(t, err)
		assert.Equal(t, consentdom.StatusValid, c.Status)
	}

	c, err = svc.Record(ctx, "c1", usage.Input{RequestURI: "/accounts/r1", ResourceID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusExpired, c.Status)
}

func TestRecord_TrustedBeneficiariesSharedAcrossResources(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{TrustedBeneficiariesSupported: true})
	seedConsent(t, st, &consentdom.Consent{
		OneAccessType: true,
		Access: consentdom.AccountAccess{
			Accounts:             []consentdom.AccountReference{{ResourceID: "r1"}},
			TrustedBeneficiaries: true,
		},
	})
	ctx := context.Background()

	// entitled = 1 (detalle) + 1 (beneficiaries) = 2.
	c, err := svc.Record(ctx, "c1", usage.Input{RequestURI: "/accounts/r1", ResourceID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusValid, c.Status)

	c, err = svc.Record(ctx, "c1", usage.Input{RequestURI: "/trusted-beneficiaries"})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusExpired, c.Status)
}

func TestRecord_BeneficiariesIgnoredWithoutProfileSupport(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{})
	seedConsent(t, st, &consentdom.Consent{
		OneAccessType: true,
		Access: consentdom.AccountAccess{
			Accounts:             []consentdom.AccountReference{{ResourceID: "r1"}},
			TrustedBeneficiaries: true,
		},
	})

	// El perfil no sirve el endpoint: entitled queda en 1.
	c, err := svc.Record(context.Background(), "c1", usage.Input{RequestURI: "/accounts/r1", ResourceID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusExpired, c.Status)
}

func TestRecord_GlobalEntitlesEverything(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{
		AvailableBookingStatuses: []consentdom.BookingStatus{consentdom.BookingStatusBooked},
	})
	seedConsent(t, st, &consentdom.Consent{
		OneAccessType: true,
		Access: consentdom.AccountAccess{
			AllPsd2:  true,
			Accounts: []consentdom.AccountReference{{ResourceID: "r1"}},
		},
	})
	ctx := context.Background()

	// Global: balances y transactions cuentan aunque las listas no los
	// enumeren. entitled = 1 + 1 (balances) + 1 (página booked) = 3.
	for _, in := range []usage.Input{
		{RequestURI: "/accounts/r1", ResourceID: "r1"},
		{RequestURI: "/accounts/r1/balances", ResourceID: "r1"},
	} {
		c, err := svc.Record(ctx, "c1", in)
		require.NoError(t, err)
		assert.Equal(t, consentdom.StatusValid, c.Status)
	}

	c, err := svc.Record(ctx, "c1", usage.Input{
		RequestURI:    "/accounts/r1/transactions",
		ResourceID:    "r1",
		BookingStatus: consentdom.BookingStatusBooked,
		TotalPages:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusExpired, c.Status)
}

func TestRecord_MultipleResourcesAllMustExhaust(t *testing.T) {
	t.Parallel()
	svc, st := newService(t, profile.Settings{})
	seedConsent(t, st, &consentdom.Consent{
		OneAccessType: true,
		Access: consentdom.AccountAccess{
			Accounts: []consentdom.AccountReference{{ResourceID: "r1"}, {ResourceID: "r2"}},
		},
	})
	ctx := context.Background()

	c, err := svc.Record(ctx, "c1", usage.Input{RequestURI: "/accounts/r1", ResourceID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusValid, c.Status)

	c, err = svc.Record(ctx, "c1", usage.Input{RequestURI: "/accounts/r2", ResourceID: "r2"})
	require.NoError(t, err)
	assert.Equal(t, consentdom.StatusExpired, c.Status)
}
