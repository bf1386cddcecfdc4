package domain

// AnonymousReporter is recorded when an unauthenticated caller submits a
// report without naming themselves.
const AnonymousReporter = "Anonymous"

// Identity is a caller verified by the auth gate.
type Identity struct {
	NetID       string `json:"netid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Verified reports whether the identity carries a NetID.
func (i *Identity) Verified() bool {
	return i != nil && i.NetID != ""
}

// Reporter resolves who a report is attributed to. A verified identity
// always wins over the client-declared name.
func Reporter(identity *Identity, declared string) string {
	if identity.Verified() {
		return identity.NetID
	}
	if declared == "" {
		return AnonymousReporter
	}
	return declared
}
