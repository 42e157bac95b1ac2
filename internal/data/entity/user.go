package entity

import (
	"time"
)

type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

var roleRank = map[UserRole]int{
	RoleUser:      1,
	RoleModerator: 2,
	RoleAdmin:     3,
}

// Valid reports whether r is one of the three known roles.
func (r UserRole) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r is as privileged as other. Unknown roles rank lowest.
func (r UserRole) AtLeast(other UserRole) bool {
	return roleRank[r] >= roleRank[other] && roleRank[r] > 0
}

// ParseRole accepts only the exact lowercase role names.
func ParseRole(s string) (UserRole, bool) {
	r := UserRole(s)
	return r, r.Valid()
}

type User struct {
	BaseNoDelete
	Username    string     `db:"username"`
	Email       string     `db:"email"`
	FirstName   string     `db:"first_name"`
	LastName    string     `db:"last_name"`
	Bio         string     `db:"bio"`
	Role        UserRole   `db:"role"`
	IsSuperuser bool       `db:"is_superuser"`
	CodeVersion int64      `db:"code_version"`
	ConfirmedAt *time.Time `db:"confirmed_at"`
}

// IsAdmin is true for the admin role and for superusers regardless of role.
func (u *User) IsAdmin() bool {
	return u.IsSuperuser || u.Role == RoleAdmin
}
