package psu

import "testing"

func TestReconcile_EmptyIncoming(t *testing.T) {
	t.Parallel()

	list := IdentityList{{ID: "P1"}}
	bound, has, out := list.Reconcile(Identity{})
	if has {
		t.Fatalf("empty identity must not bind, got bound=%v", bound)
	}
	if len(out) != 1 {
		t.Fatalf("list must stay intact, got len=%d", len(out))
	}
}

func TestReconcile_ContentEqualReusesStored(t *testing.T) {
	t.Parallel()

	stored := Identity{ID: "P1", IDType: "aspsp"}
	list := IdentityList{stored}

	bound, has, out := list.Reconcile(Identity{ID: " P1 ", IDType: "aspsp"})
	if !has {
		t.Fatal("expected a bound identity")
	}
	if bound != stored {
		t.Fatalf("expected stored instance reuse, got %+v", bound)
	}
	if len(out) != 1 {
		t.Fatalf("no append expected on reuse, got len=%d", len(out))
	}
}

func TestReconcile_NewIdentityAppends(t *testing.T) {
	t.Parallel()

	list := IdentityList{{ID: "P1"}}
	bound, has, out := list.Reconcile(Identity{ID: "P2"})
	if !has || bound.ID != "P2" {
		t.Fatalf("expected P2 bound, got has=%v bound=%+v", has, bound)
	}
	if len(out) != 2 || out[1].ID != "P2" {
		t.Fatalf("expected append at tail, got %+v", out)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	t.Parallel()

	var list IdentityList
	p := Identity{ID: "P1"}
	_, _, list = list.Reconcile(p)
	_, _, list = list.Reconcile(p)
	_, _, list = list.Reconcile(p)
	if len(list) != 1 {
		t.Fatalf("repeated reconcile must not duplicate, got len=%d", len(list))
	}
}

func TestSetEquals(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b IdentityList
		want bool
	}{
		{"both empty", nil, nil, true},
		{"same order", IdentityList{{ID: "P1"}, {ID: "P2"}}, IdentityList{{ID: "P1"}, {ID: "P2"}}, true},
		{"different order", IdentityList{{ID: "P1"}, {ID: "P2"}}, IdentityList{{ID: "P2"}, {ID: "P1"}}, true},
		{"different size", IdentityList{{ID: "P1"}}, IdentityList{{ID: "P1"}, {ID: "P2"}}, false},
		{"different member", IdentityList{{ID: "P1"}}, IdentityList{{ID: "P3"}}, false},
		{"id type matters", IdentityList{{ID: "P1", IDType: "a"}}, IdentityList{{ID: "P1", IDType: "b"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.SetEquals(tc.b); got != tc.want {
				t.Fatalf("SetEquals got %v want %v", got, tc.want)
			}
		})
	}
}

func TestIsRequestCorrect(t *testing.T) {
	t.Parallel()

	p1 := Identity{ID: "P1"}
	p2 := Identity{ID: "P2"}

	if !IsRequestCorrect(Identity{}, &p1) {
		t.Fatal("empty incoming must be accepted")
	}
	if !IsRequestCorrect(p1, nil) {
		t.Fatal("nil bound must accept any identity")
	}
	if !IsRequestCorrect(p1, &p1) {
		t.Fatal("identical identity must be accepted")
	}
	if IsRequestCorrect(p2, &p1) {
		t.Fatal("conflicting identity must be rejected")
	}
}
