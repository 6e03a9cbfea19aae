package txguard

import "testing"

func TestRunNilTx(t *testing.T) {
	called := false
	if Run(nil, func() { called = true }) {
		t.Fatalf("Run with nil transaction reported success")
	}
	if called {
		t.Fatalf("Run with nil transaction invoked fn")
	}
	if v, ok := Value(nil, func() int { return 5 }); ok || v != 0 {
		t.Fatalf("Value with nil transaction = (%d, %v), want (0, false)", v, ok)
	}
}

func TestGuardClosedTransaction(t *testing.T) {
	if guard(func() { panic(closedPanic) }) {
		t.Fatalf("guard reported success for a finished transaction")
	}
	if !guard(func() {}) {
		t.Fatalf("guard reported failure for a successful call")
	}
}

func TestGuardPropagatesOtherPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != "boom" {
			t.Fatalf("recovered %v, want boom", r)
		}
	}()
	guard(func() { panic("boom") })
	t.Fatalf("guard swallowed an unrelated panic")
}
