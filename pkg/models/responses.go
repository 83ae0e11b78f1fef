package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ListResponse wraps a collection listing
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// TokenResponse carries a development bearer token
type TokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}
