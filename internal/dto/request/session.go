package request

import "time"

// IssueSessionRequest provisions a bearer session for operator tooling.
// The user is created on first use of the email.
type IssueSessionRequest struct {
	Username string        `json:"username" validate:"required,min=3,max=50"`
	Email    string        `json:"email" validate:"required,email"`
	Role     string        `json:"role" validate:"required,oneof=customer business_owner admin"`
	TTL      time.Duration `json:"ttl" validate:"required,min=1m"`
}
