package app

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CheckEmailRequest is the body of POST /auth/check-email.
type CheckEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// User is the public view of a profile.
type User struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Username *string `json:"username"`
}

// Session is returned by signup and login.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
