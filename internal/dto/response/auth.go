package response

import (
	"time"

	"storefront/internal/data/entity"
)

type UserResponse struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Role         entity.UserRole `json:"role"`
	IsActive     bool            `json:"is_active"`
	IsActivated  bool            `json:"is_activated"`
	SendMessages bool            `json:"send_messages"`
	LastLogin    *time.Time      `json:"last_login,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SessionResponse is a logged-in session, either a browser cookie or an API token
type SessionResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"auth_token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type TokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AccessTokenResponse struct {
	Access string `json:"access"`
}

// ActivationOutcome is the result of visiting an activation link
type ActivationOutcome string

const (
	ActivationDone        ActivationOutcome = "activation_done"
	ActivationAlreadyDone ActivationOutcome = "activation_already_done"
)

type DeletionSummary struct {
	Products int64 `json:"products"`
	Images   int64 `json:"images"`
}

// Helper converters
func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:           user.ID.String(),
		Username:     user.Username,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Role:         user.Role,
		IsActive:     user.IsActive,
		IsActivated:  user.IsActivated,
		SendMessages: user.SendMessages,
		LastLogin:    user.LastLogin,
		CreatedAt:    user.CreatedAt,
	}
}

func SessionToResponse(user *entity.User, session *entity.Session) SessionResponse {
	return SessionResponse{
		User:      UserToResponse(user),
		Token:     session.Token.String(),
		ExpiresAt: session.ExpiresAt,
	}
}
