package observe

import (
	"errors"
	"testing"
)

type account struct{}

var (
	accountBalance = New[account]("balance", 0)
	accountOwner   = New[account]("owner", "")
	accountTier    = New[account]("tier", "free")

	_ = MustRegister(accountBalance, accountOwner, accountTier)
)

func TestAddCallbackSingleName(t *testing.T) {
	a := &account{}
	hits := 0
	cb := Callback[account](func(*account) error { hits++; return nil })
	if err := AddCallback(a, "balance", cb); err != nil {
		t.Fatalf("add: %v", err)
	}
	defer func() {
		if err := ClearCallbacks(a); err != nil {
			t.Fatalf("clear: %v", err)
		}
	}()

	if err := accountBalance.Set(a, 10); err != nil {
		t.Fatalf("set: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected 1 hit, got %d", hits)
	}
}

func TestAddCallbackNameSlice(t *testing.T) {
	a := &account{}
	hits := 0
	cb := Callback[account](func(*account) error { hits++; return nil })
	if err := AddCallback(a, []string{"balance", "owner"}, cb); err != nil {
		t.Fatalf("add: %v", err)
	}
	defer ClearCallbacks(a)

	if err := accountBalance.Set(a, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := accountOwner.Set(a, "ada"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if hits != 2 {
		t.Fatalf("expected 2 hits, got %d", hits)
	}
}

func TestAddCallbackMapSpec(t *testing.T) {
	a := &account{}
	var balanceHits, ownerHits int
	spec := map[string]any{
		"balance": Callback[account](func(*account) error { balanceHits++; return nil }),
		"owner": []Callback[account]{
			func(*account) error { ownerHits++; return nil },
			func(*account) error { ownerHits++; return nil },
		},
	}
	if err := AddCallback(a, spec, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	defer ClearCallbacks(a)

	if err := accountBalance.Set(a, 5); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := accountOwner.Set(a, "grace"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if balanceHits != 1 || ownerHits != 2 {
		t.Fatalf("expected 1/2 hits, got %d/%d", balanceHits, ownerHits)
	}
}

func TestAddCallbackMapRejectsExplicitCallback(t *testing.T) {
	a := &account{}
	cb := Callback[account](func(*account) error { return nil })
	spec := map[string]any{"balance": cb}
	if err := AddCallback(a, spec, cb); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestAddCallbackUnknownProperty(t *testing.T) {
	a := &account{}
	cb := Callback[account](func(*account) error { return nil })
	if err := AddCallback(a, "missing", cb); !errors.Is(err, ErrNotAProperty) {
		t.Fatalf("expected ErrNotAProperty, got %v", err)
	}
	if err := AddCallback(a, map[string]any{"missing": cb}, nil); !errors.Is(err, ErrNotAProperty) {
		t.Fatalf("expected ErrNotAProperty for map key, got %v", err)
	}
	if err := AddCallback(a, 42, cb); !errors.Is(err, ErrNotAProperty) {
		t.Fatalf("expected ErrNotAProperty for bad spec type, got %v", err)
	}
}

func TestAddCallbackRejectsNilCallback(t *testing.T) {
	a := &account{}
	if err := AddCallback(a, "balance", nil); !errors.Is(err, ErrNotCallable) {
		t.Fatalf("expected ErrNotCallable, got %v", err)
	}
}

func TestRemoveCallbackRoundTrip(t *testing.T) {
	a := &account{}
	cb := Callback[account](func(*account) error { return nil })
	if err := AddCallback(a, []string{"balance", "tier"}, cb); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := RemoveCallback(a, []string{"balance", "tier"}, cb); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := RemoveCallback(a, "balance", cb); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCallbacksSnapshots(t *testing.T) {
	a := &account{}
	cb := Callback[account](func(*account) error { return nil })
	if err := AddCallback(a, "tier", cb); err != nil {
		t.Fatalf("add: %v", err)
	}
	defer ClearCallbacks(a)

	list, err := Callbacks(a, "tier")
	if err != nil {
		t.Fatalf("callbacks: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 callback, got %d", len(list))
	}

	all, err := AllCallbacks(a)
	if err != nil {
		t.Fatalf("all callbacks: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected entries for every property, got %d", len(all))
	}
	if len(all["tier"]) != 1 || len(all["balance"]) != 0 {
		t.Fatalf("unexpected callback distribution: %v", all)
	}
}

func TestClearCallbacksSelective(t *testing.T) {
	a := &account{}
	cb := Callback[account](func(*account) error { return nil })
	if err := AddCallback(a, []string{"balance", "tier"}, cb); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ClearCallbacks(a, "balance"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	balance, _ := Callbacks(a, "balance")
	tier, _ := Callbacks(a, "tier")
	if len(balance) != 0 || len(tier) != 1 {
		t.Fatalf("expected only balance cleared, got %d/%d", len(balance), len(tier))
	}
	if err := ClearCallbacks(a); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	tier, _ = Callbacks(a, "tier")
	if len(tier) != 0 {
		t.Fatalf("expected tier cleared, got %d", len(tier))
	}
}

func TestCopyCallbacks(t *testing.T) {
	src := &account{}
	dst := &account{}
	hits := 0
	if err := AddCallback(src, "balance", Callback[account](func(*account) error { hits++; return nil })); err != nil {
		t.Fatalf("add: %v", err)
	}
	defer ClearCallbacks(src)
	defer ClearCallbacks(dst)

	if err := CopyCallbacks(src, dst); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if err := accountBalance.Set(dst, 7); err != nil {
		t.Fatalf("set: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected copied callback to fire, got %d", hits)
	}
}

func TestCopyCallbacksWithoutTypeCheck(t *testing.T) {
	src := &account{}
	dst := &account{}
	if err := CopyCallbacks(src, dst, WithoutTypeCheck()); err != nil {
		t.Fatalf("copy without check: %v", err)
	}
}
