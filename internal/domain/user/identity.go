package user

// AuthenticatedIdentity is the per-request resolution of a credential to a
// stored session. "Current" is relative to the viewer, so it is derived per
// view and never stored on the session row.
type AuthenticatedIdentity struct {
	UserID    uint
	SessionID string
}

// IsCurrent reports whether the given session is the one this identity is
// acting from.
func (i AuthenticatedIdentity) IsCurrent(s *Session) bool {
	return s != nil && s.ID == i.SessionID
}
