package identity

// Identity selects whose cart is active: the anonymous guest slot or a
// specific authenticated user. The zero value is the guest.
type Identity struct {
	UserID string
}

// Guest is the identity of a shopper with no session.
var Guest = Identity{}

// User returns the identity of an authenticated shopper.
func User(id string) Identity {
	return Identity{UserID: id}
}

// IsGuest reports whether the identity has no authenticated user.
func (i Identity) IsGuest() bool {
	return i.UserID == ""
}

func (i Identity) String() string {
	if i.IsGuest() {
		return "guest"
	}
	return "user:" + i.UserID
}
