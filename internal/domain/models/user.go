package models

// Role determines which operations a user may perform.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleStaff Role = "Staff"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// RegisteredUser is a clinic staff account. The PIN is stored as a bcrypt
// hash, never in the clear.
type RegisteredUser struct {
	ID       string `json:"id" bson:"_id"`
	Username string `json:"username" bson:"username"`
	PINHash  string `json:"pinHash" bson:"pin_hash"`
	Role     Role   `json:"role" bson:"role"`
	Phone    string `json:"phone" bson:"phone"`
	Email    string `json:"email" bson:"email"`
}

// SessionUser is the single active session persisted for the device. The
// token doubles as the bearer credential on the HTTP API.
type SessionUser struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}
