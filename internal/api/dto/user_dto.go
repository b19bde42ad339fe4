package dto

import (
	"net/mail"
	"regexp"
	"time"

	"github.com/spec-kit/account-service/internal/domain"
)

// phonePattern accepts E.164 formatted numbers, e.g. +2349015577897.
var phonePattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// CreateUserRequest payload for new accounts. All fields are required.
type CreateUserRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

// Validate returns per-field problems, or nil when the payload is acceptable.
func (r CreateUserRequest) Validate() map[string]any {
	problems := map[string]any{}
	if r.FirstName == "" {
		problems["first_name"] = "required"
	}
	if r.LastName == "" {
		problems["last_name"] = "required"
	}
	if r.Password == "" {
		problems["password"] = "required"
	}
	if !validEmail(r.Email) {
		problems["email"] = "must be a valid email address"
	}
	if !phonePattern.MatchString(r.PhoneNumber) {
		problems["phone_number"] = "must be an E.164 phone number"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// UpdateUserRequest payload for partial updates. Omitted fields stay untouched;
// pointer fields keep "not provided" distinct from "set to empty".
type UpdateUserRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	PhoneNumber *string `json:"phone_number"`
}

// Validate returns per-field problems for the fields that are present.
func (r UpdateUserRequest) Validate() map[string]any {
	problems := map[string]any{}
	if r.FirstName != nil && *r.FirstName == "" {
		problems["first_name"] = "must not be empty"
	}
	if r.LastName != nil && *r.LastName == "" {
		problems["last_name"] = "must not be empty"
	}
	if r.Password != nil && *r.Password == "" {
		problems["password"] = "must not be empty"
	}
	if r.Email != nil && !validEmail(*r.Email) {
		problems["email"] = "must be a valid email address"
	}
	if r.PhoneNumber != nil && !phonePattern.MatchString(*r.PhoneNumber) {
		problems["phone_number"] = "must be an E.164 phone number"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// UserResponse is the outward representation of an account.
// It never carries the password hash.
type UserResponse struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Roles       []string  `json:"roles"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewUserResponse converts a domain user into its response shape.
func NewUserResponse(user domain.User) UserResponse {
	roles := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, string(role.Name))
	}
	return UserResponse{
		ID:          user.ID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Roles:       roles,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// NewUserResponseList converts a slice of domain users.
func NewUserResponseList(users []domain.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}
	return responses
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
