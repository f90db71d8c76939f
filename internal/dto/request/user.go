package request

type UpdateProfileRequest struct {
	Username     string `json:"username" validate:"required,notblank,max=150"`
	Email        string `json:"email" validate:"required,email,max=254"`
	FirstName    string `json:"first_name" validate:"max=150"`
	LastName     string `json:"last_name" validate:"max=150"`
	SendMessages bool   `json:"send_messages"`
}

// ListUsersRequest filters the admin user listing by activation state
type ListUsersRequest struct {
	PaginatedRequest
	ActState string `json:"actstate" validate:"omitempty,oneof=activated threedays week"`
}

type ResendActivationRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,uuid"`
}
