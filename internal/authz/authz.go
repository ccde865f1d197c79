package authz

// CanMutate reports whether the acting user owns the record. This gates
// update/delete affordances in listings; the repository enforces the same
// rule in its WHERE clause, so a bypassed client check cannot mutate
// somebody else's posting.
func CanMutate(actingID, ownerID string) bool {
	return actingID != "" && actingID == ownerID
}
