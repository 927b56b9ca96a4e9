package domain

import "time"

// User represents a registered player. The password credential is kept
// out of this struct entirely; stores return it separately so it can
// never leak through a serialized response.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	HighScore int       `json:"highScore"`
	CreatedAt time.Time `json:"createdAt"`
}

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4,max=128"`
}

// LogInRequest is the body of POST /auth/login.
type LogInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
