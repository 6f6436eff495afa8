package domain

// Identity is the authenticated user context scoping all bookmark
// operations. It exists only while a session is active.
type Identity struct {
	// ID is the opaque stable identifier assigned at first login.
	ID string `json:"id"`

	// Email is the display label reported by the OAuth provider.
	Email string `json:"email"`
}

// Valid reports whether the identity carries a usable ID.
func (i Identity) Valid() bool {
	return i.ID != ""
}
