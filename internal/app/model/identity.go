package model

// Identity is the owner of a cart or wishlist: an authenticated user, a guest
// session, or both (right after sign-in). At least one side must be present.
type Identity struct {
	UserID    *uint
	SessionID *string
}

func UserIdentity(userID uint) Identity {
	return Identity{UserID: &userID}
}

func SessionIdentity(sessionID string) Identity {
	return Identity{SessionID: &sessionID}
}

// Valid reports whether the identity can own a cart or wishlist.
func (i Identity) Valid() bool {
	if i.UserID != nil && *i.UserID != 0 {
		return true
	}
	return i.SessionID != nil && *i.SessionID != ""
}

// ListingRef identifies one cart or wishlist line: a seller listing plus the
// stock slot within it. Two lines are the same line iff their refs are equal.
type ListingRef struct {
	UserProductID uint `json:"user_product_id"`
	StockIndex    int  `json:"stock_index"`
}

// LinkResult describes what the session-to-user linker did to a carts or
// wishlists row at sign-in.
type LinkResult string

const (
	// LinkCreated means no row existed for either identity; a fresh row was
	// inserted carrying both.
	LinkCreated LinkResult = "created"
	// LinkLinked means the guest's session row was attached to the user.
	LinkLinked LinkResult = "linked"
	// LinkUpdated means the user already had a row; its session pointer was
	// refreshed.
	LinkUpdated LinkResult = "updated"
	// LinkMerged means independent user and session rows both existed; the
	// session row was folded into the user row and deleted.
	LinkMerged LinkResult = "merged"
)
