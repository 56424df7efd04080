package models

// EditorAccount is a configured login for the editor API.
type EditorAccount struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token     string        `json:"token"`
	Account   EditorAccount `json:"account"`
	CSRFToken string        `json:"csrf_token,omitempty"`
}
