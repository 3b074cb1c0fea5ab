package booking

// Actor identifies the authenticated user making a request.
type Actor struct {
	ID      uint64
	IsAdmin bool
}

// CanAccess reports whether the actor may read or delete a booking owned by
// ownerID: the owner themselves or any administrator.
func CanAccess(a Actor, ownerID uint64) bool {
	return a.ID == ownerID || a.IsAdmin
}

// CanSelfCancel reports whether the actor may use the self-cancel path.
// Administrators do not cancel through this path; they use the general
// status-update operation instead.
func CanSelfCancel(a Actor, ownerID uint64) bool {
	return a.ID == ownerID
}
