package memory

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/consentd/internal/domain/authorisation"
	"github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/domain/psu"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
)

func TestConsentCRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := New()

	c := &consent.Consent{ID: "c1", InstanceID: "default", Status: consent.StatusReceived}
	if err := st.Consents().Create(ctx, c); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if err := st.Consents().Create(ctx, c); !repository.IsConflict(err) {
		t.Fatalf("duplicate create: expected conflict, got %v", err)
	}

	got, err := st.Consents().GetByID(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByID err: %v", err)
	}
	// Copia defensiva: mutar lo leído no muta lo almacenado.
	got.Status = consent.StatusValid
	again, _ := st.Consents().GetByID(ctx, "c1")
	if again.Status != consent.StatusReceived {
		t.Fatal("read must return a copy")
	}

	if _, err := st.Consents().GetByID(ctx, "nope"); !repository.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindByPsuAndTpp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := New()

	mk := func(id, tpp string, status consent.Status, psus ...string) {
		c := &consent.Consent{ID: id, InstanceID: "default", TppAuthorisationNumber: tpp, Status: status}
		for _, p := range psus {
			c.Psus = append(c.Psus, psu.Identity{ID: p})
		}
		if err := st.Consents().Create(ctx, c); err != nil {
			t.Fatalf("Create %s err: %v", id, err)
		}
	}
	mk("c1", "T1", consent.StatusValid, "P1")
	mk("c2", "T1", consent.StatusRejected, "P1")
	mk("c3", "T2", consent.StatusValid, "P1")
	mk("c4", "T1", consent.StatusValid, "P2")

	out, err := st.Consents().FindByPsuAndTpp(ctx, repository.ConsentFilter{
		InstanceID:             "default",
		TppAuthorisationNumber: "T1",
		PsuIDs:                 []string{"P1"},
		Statuses:               consent.NonFinalisedStatuses(),
	})
	if err != nil {
		t.Fatalf("FindByPsuAndTpp err: %v", err)
	}
	if len(out) != 1 || out[0].ID != "c1" {
		t.Fatalf("expected only c1, got %+v", out)
	}
}

func TestUsageRecord_UpsertIncrements(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := New()

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	u := &consent.Usage{ConsentID: "c1", UsageDate: day, RequestURI: "/accounts/r1", ResourceID: "r1", TotalPages: 2}

	for i := 0; i < 3; i++ {
		if err := st.Usages().Record(ctx, u); err != nil {
			t.Fatalf("Record err: %v", err)
		}
	}
	// TotalPages toma el máximo visto, no el último.
	u2 := *u
	u2.TotalPages = 1
	if err := st.Usages().Record(ctx, &u2); err != nil {
		t.Fatalf("Record err: %v", err)
	}

	list, err := st.Usages().ListByConsent(ctx, "c1")
	if err != nil {
		t.Fatalf("ListByConsent err: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected single upserted row, got %d", len(list))
	}
	if list[0].Counter != 4 {
		t.Fatalf("counter got %d want 4", list[0].Counter)
	}
	if list[0].TotalPages != 2 {
		t.Fatalf("total pages got %d want 2", list[0].TotalPages)
	}

	// Día distinto crea fila nueva: el rollover resetea el contador.
	u3 := *u
	u3.UsageDate = day.AddDate(0, 0, 1)
	if err := st.Usages().Record(ctx, &u3); err != nil {
		t.Fatalf("Record err: %v", err)
	}
	list, _ = st.Usages().ListByConsent(ctx, "c1")
	if len(list) != 2 {
		t.Fatalf("expected two rows after day rollover, got %d", len(list))
	}
}

func TestWithinTx_SharesState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := New()

	err := st.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Consents().Create(ctx, &consent.Consent{ID: "c1", Status: consent.StatusReceived}); err != nil {
			return err
		}
		return tx.Authorisations().Create(ctx, &authorisation.Authorisation{
			ID: "a1", ParentID: "c1", ParentKind: authorisation.ParentConsent, Kind: authorisation.KindCreation,
			ScaStatus: authorisation.ScaStatusReceived,
		})
	})
	if err != nil {
		t.Fatalf("WithinTx err: %v", err)
	}

	if _, err := st.Consents().GetByID(ctx, "c1"); err != nil {
		t.Fatalf("consent not visible after tx: %v", err)
	}
	auths, err := st.Authorisations().ListByParent(ctx, "c1", authorisation.KindCreation)
	if err != nil || len(auths) != 1 {
		t.Fatalf("authorisation not visible after tx: %v %d", err, len(auths))
	}
}
