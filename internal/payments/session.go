package payments

// SessionState is the payment step's state.
type SessionState string

const (
	StateInitializing SessionState = "initializing"
	StateReady        SessionState = "ready"
	StateProcessing   SessionState = "processing"
	StateSucceeded    SessionState = "succeeded"
	StateFailed       SessionState = "failed"
)

// CardFieldFlags tracks completion of the three card sub-fields as reported
// by the payment element.
type CardFieldFlags struct {
	NumberComplete bool `json:"numberComplete"`
	ExpiryComplete bool `json:"expiryComplete"`
	CVCComplete    bool `json:"cvcComplete"`
}

// AllComplete reports whether every card sub-field is complete.
func (f CardFieldFlags) AllComplete() bool {
	return f.NumberComplete && f.ExpiryComplete && f.CVCComplete
}

// Session is the client-local state of one payment page visit. It is created
// when the page mounts with a reference and discarded on navigation away or
// terminal success.
type Session struct {
	Reference    string         `json:"reference"`
	State        SessionState   `json:"state"`
	Card         CardFieldFlags `json:"card"`
	HolderName   string         `json:"holderName"`
	ClientSecret string         `json:"-"`
	IntentID     string         `json:"intentId,omitempty"`
	LastError    *CardError     `json:"lastError,omitempty"`
}

// NewSession creates a session for the given reference.
func NewSession(reference string) *Session {
	return &Session{
		Reference: reference,
		State:     StateInitializing,
	}
}

// Open moves the session to ready. No network call gates the form: card
// fields render and accept input immediately.
func (s *Session) Open() {
	if s.State == StateInitializing {
		s.State = StateReady
	}
}

// SetCardField records a completion flag change for "number", "expiry" or
// "cvc". Unknown field names are ignored.
func (s *Session) SetCardField(field string, complete bool) {
	switch field {
	case "number":
		s.Card.NumberComplete = complete
	case "expiry":
		s.Card.ExpiryComplete = complete
	case "cvc":
		s.Card.CVCComplete = complete
	}
}

// SetHolderName records the cardholder name.
func (s *Session) SetHolderName(name string) {
	s.HolderName = name
}

// CanSubmit is the submit-control guard: every card sub-field complete, a
// cardholder name present, and no attempt already in flight.
func (s *Session) CanSubmit() bool {
	if s.State != StateReady {
		return false
	}
	if !s.Card.AllComplete() {
		return false
	}
	return s.HolderName != ""
}
