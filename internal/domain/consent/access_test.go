package consent

import "testing"

func TestRequestType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		access AccountAccess
		want   RequestType
	}{
		{"global", AccountAccess{AllPsd2: true}, RequestTypeGlobal},
		{"available accounts", AccountAccess{AvailableAccounts: true}, RequestTypeAllAvailableAccounts},
		{"bank offered", AccountAccess{}, RequestTypeBankOffered},
		{"dedicated", AccountAccess{Accounts: []AccountReference{{ResourceID: "r1"}}}, RequestTypeDedicatedAccounts},
		{"dedicated via balances only", AccountAccess{Balances: []AccountReference{{ResourceID: "r1"}}}, RequestTypeDedicatedAccounts},
		// allPsd2 gana sobre listas presentes
		{"global wins", AccountAccess{AllPsd2: true, Accounts: []AccountReference{{ResourceID: "r1"}}}, RequestTypeGlobal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.access.RequestType(); got != tc.want {
				t.Fatalf("RequestType got %q want %q", got, tc.want)
			}
		})
	}
}

func TestNormalize_UmbrellaUnion(t *testing.T) {
	t.Parallel()

	a := AccountAccess{
		Accounts:     []AccountReference{{ResourceID: "r1"}},
		Balances:     []AccountReference{{ResourceID: "r2"}},
		Transactions: []AccountReference{{ResourceID: "r2"}, {ResourceID: "r3"}},
	}

	got := a.Normalize()
	if len(got.Accounts) != 3 {
		t.Fatalf("expected 3 umbrella refs, got %d: %+v", len(got.Accounts), got.Accounts)
	}
	for i, want := range []string{"r1", "r2", "r3"} {
		if got.Accounts[i].ResourceID != want {
			t.Fatalf("accounts[%d] got %q want %q", i, got.Accounts[i].ResourceID, want)
		}
	}
	// balances/transactions quedan como estaban
	if len(got.Balances) != 1 || len(got.Transactions) != 2 {
		t.Fatalf("sublists must not change: %+v", got)
	}
}

func TestResourceIDs_DedupAcrossLists(t *testing.T) {
	t.Parallel()

	a := AccountAccess{
		Accounts: []AccountReference{{ResourceID: "r1"}, {ResourceID: "r2"}},
		Balances: []AccountReference{{ResourceID: "r1"}},
	}
	ids := a.ResourceIDs()
	if len(ids) != 2 || ids[0] != "r1" || ids[1] != "r2" {
		t.Fatalf("ResourceIDs got %v", ids)
	}
}

func TestStatusTerminality(t *testing.T) {
	t.Parallel()

	terminal := []Status{StatusRejected, StatusExpired, StatusRevoked, StatusTerminatedByTpp, StatusTerminatedByAspsp}
	for _, s := range terminal {
		if !s.IsFinalised() {
			t.Fatalf("%s must be terminal", s)
		}
	}
	for _, s := range NonFinalisedStatuses() {
		if s.IsFinalised() {
			t.Fatalf("%s must not be terminal", s)
		}
	}
}
