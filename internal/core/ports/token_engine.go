package ports

// TokenEngine mints and verifies signed, time-bounded bearer tokens binding
// a subject (username) and a role claim.
type TokenEngine interface {
	Generate(subject, role string) (string, error)
	ExtractSubject(token string) (string, error)
	Verify(token, expectedSubject string) bool
}
