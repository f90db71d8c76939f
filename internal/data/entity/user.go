package entity

import "time"

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

// User is an account. A freshly registered user is pending
// (IsActive and IsActivated both false) until the activation link is visited.
type User struct {
	Base
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password"`
	FirstName    string     `db:"first_name"`
	LastName     string     `db:"last_name"`
	Role         UserRole   `db:"role"`
	IsActive     bool       `db:"is_active"`
	IsActivated  bool       `db:"is_activated"`
	SendMessages bool       `db:"send_messages"`
	LastLogin    *time.Time `db:"last_login"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsPending reports whether the account still waits for activation
func (u *User) IsPending() bool {
	return !u.IsActive || !u.IsActivated
}
