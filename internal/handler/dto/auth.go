package dto

import "github.com/cardvault/gateway/internal/model"

// CredentialsRequest is the body of signup and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// LoginResponse carries the bearer credential.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ToLoginResponse converts an issued credential and its account to LoginResponse.
func ToLoginResponse(token string, account *model.Account) *LoginResponse {
	return &LoginResponse{
		Token: token,
		User:  UserResponse{Email: account.Email, Role: account.Role},
	}
}
