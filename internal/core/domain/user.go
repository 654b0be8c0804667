package domain

import "time"

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Role is the permission level carried by a user and by their session tokens.
type Role string

const (
	RoleStudent      Role = "student"
	RoleCanteenStaff Role = "canteen_staff"
	RoleAdmin        Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCanteenStaff, RoleAdmin:
		return true
	}
	return false
}

// User models a registered canteen customer or operator.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	CollegeID    string    `json:"college_id"`
	Phone        string    `json:"phone"`
	Department   string    `json:"department"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserView is the outward representation of a user. It has no password field at all.
type UserView struct {
	ID         string
	Name       string
	Email      string
	CollegeID  string
	Phone      string
	Department string
	Role       Role
	CreatedAt  time.Time
}

func (u *User) View() UserView {
	return UserView{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		CollegeID:  u.CollegeID,
		Phone:      u.Phone,
		Department: u.Department,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
	}
}

// Principal is the verified identity behind a request, as asserted by a session token.
type Principal struct {
	UserID string
	Role   Role
}
