package permission

// Action names an operation that can be gated on a user's role within a
// recipe book.
type Action string

const (
	ActionInvite       Action = "invite"
	ActionRemoveMember Action = "remove_member"
	ActionDeleteBook   Action = "delete_book"
	ActionEditBook     Action = "edit_book"
	ActionCreateRecipe Action = "create_recipe"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Member is a (user, role) pair from a book's membership collection. The
// owner never appears here.
type Member struct {
	UserID string
	Role   string
}

var roleGrants = map[string]map[Action]bool{
	RoleAdmin: {
		ActionInvite:       true,
		ActionCreateRecipe: true,
	},
	RoleMember: {
		ActionCreateRecipe: true,
	},
}

// Can decides whether userID may perform action on a book owned by ownerID.
// The owner is authorized for everything without holding a membership row.
// Unknown actions and unknown roles deny.
func Can(action Action, members []Member, ownerID, userID string) bool {
	if userID == "" {
		return false
	}
	if userID == ownerID {
		return true
	}

	role, ok := lookupRole(members, userID)
	if !ok {
		return false
	}

	grants, ok := roleGrants[role]
	if !ok {
		return false
	}
	return grants[action]
}

// IsOwner reports whether userID owns the book.
func IsOwner(ownerID, userID string) bool {
	return userID != "" && userID == ownerID
}

// IsAdmin reports whether userID holds the admin role. The owner is not
// considered an admin by this predicate; check IsOwner first.
func IsAdmin(members []Member, userID string) bool {
	role, ok := lookupRole(members, userID)
	return ok && role == RoleAdmin
}

// IsMember reports whether userID holds any membership row.
func IsMember(members []Member, userID string) bool {
	_, ok := lookupRole(members, userID)
	return ok
}

func lookupRole(members []Member, userID string) (string, bool) {
	if userID == "" {
		return "", false
	}
	for _, m := range members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}
