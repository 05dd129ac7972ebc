package domain

import "time"

// Role is the business classification of a user
type Role string

const (
	RoleVendor   Role = "vendor"   // Lists and manages products
	RoleCustomer Role = "customer" // Holds a cart and places orders
	RoleAdmin    Role = "admin"    // Staff account
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleVendor, RoleCustomer, RoleAdmin:
		return true
	}
	return false
}

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                  // Primary key
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`         // Unique username, lower-cased
	Email     string    `gorm:"size:254" json:"email"`                                 // Contact email for notifications
	Password  string    `gorm:"not null" json:"-"`                                     // Hashed password
	Role      Role      `gorm:"type:varchar(10);not null;default:customer" json:"role"` // Business role
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`                // Administrative privilege, independent of Role
	CreatedAt time.Time `json:"created_at"`                                            // Registration time
}

// IsVendor reports whether the user sells products
func (u *User) IsVendor() bool { return u.Role == RoleVendor }

// IsCustomer reports whether the user buys products
func (u *User) IsCustomer() bool { return u.Role == RoleCustomer }
