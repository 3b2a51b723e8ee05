package entity

type UserRole string

const (
	RoleCustomer      UserRole = "customer"
	RoleBusinessOwner UserRole = "business_owner"
	RoleAdmin         UserRole = "admin"
)

type User struct {
	BaseNoDelete
	Username string   `db:"username"`
	Email    string   `db:"email"`
	Role     UserRole `db:"role"`
	IsActive bool     `db:"is_active"`
}
