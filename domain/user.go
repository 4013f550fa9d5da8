package domain

// User is read-only from the conversation core's point of view.
type User struct {
	ID    string
	Name  string
	Email string
	Image string
}

// Session is the resolved identity of the caller.
// A nil *Session, or one without UserID, is unauthenticated.
type Session struct {
	UserID string
	Name   string
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}
