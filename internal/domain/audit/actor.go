// internal/domain/audit/actor.go
package audit

// Actor identifies who performed an audited operation. A zero Actor means
// the action was anonymous (e.g. a public QR scan).
type Actor struct {
	ID    *uint
	Email string
	Role  string
}

// Anonymous is the actor used for unauthenticated requests
var Anonymous = Actor{}

// Apply copies the actor fields onto an entry
func (a Actor) Apply(entry *Entry) {
	entry.UserID = a.ID
	entry.UserEmail = a.Email
	entry.UserRole = a.Role
}
