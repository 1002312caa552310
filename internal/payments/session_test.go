package payments

import "testing"

func TestSessionOpen(t *testing.T) {
	sess := NewSession("REF-12345678")
	if sess.State != StateInitializing {
		t.Fatalf("expected initializing, got %s", sess.State)
	}
	sess.Open()
	if sess.State != StateReady {
		t.Fatalf("expected ready, got %s", sess.State)
	}
	// Open is a no-op outside initializing.
	sess.State = StateProcessing
	sess.Open()
	if sess.State != StateProcessing {
		t.Fatalf("expected processing, got %s", sess.State)
	}
}

func TestSessionCanSubmit(t *testing.T) {
	complete := CardFieldFlags{NumberComplete: true, ExpiryComplete: true, CVCComplete: true}

	cases := []struct {
		name   string
		state  SessionState
		card   CardFieldFlags
		holder string
		want   bool
	}{
		{"all complete", StateReady, complete, "Jean Dupont", true},
		{"missing number", StateReady, CardFieldFlags{ExpiryComplete: true, CVCComplete: true}, "Jean Dupont", false},
		{"missing expiry", StateReady, CardFieldFlags{NumberComplete: true, CVCComplete: true}, "Jean Dupont", false},
		{"missing cvc", StateReady, CardFieldFlags{NumberComplete: true, ExpiryComplete: true}, "Jean Dupont", false},
		{"missing holder name", StateReady, complete, "", false},
		{"already processing", StateProcessing, complete, "Jean Dupont", false},
		{"not yet open", StateInitializing, complete, "Jean Dupont", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := &Session{Reference: "REF-12345678", State: tc.state, Card: tc.card, HolderName: tc.holder}
			if got := sess.CanSubmit(); got != tc.want {
				t.Fatalf("CanSubmit() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSessionSetCardField(t *testing.T) {
	sess := NewSession("REF-12345678")
	sess.SetCardField("number", true)
	sess.SetCardField("expiry", true)
	sess.SetCardField("cvc", true)
	if !sess.Card.AllComplete() {
		t.Fatal("expected all card fields complete")
	}
	sess.SetCardField("expiry", false)
	if sess.Card.AllComplete() {
		t.Fatal("expected incomplete after expiry flag cleared")
	}
	sess.SetCardField("unknown", true) // ignored
	if sess.Card.AllComplete() {
		t.Fatal("unknown field must not complete the set")
	}
}
