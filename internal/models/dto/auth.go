package dto

// PasswordPatternError describes the password policy enforced on registration.
const PasswordPatternError = "Password must clear the following conditions: at least 1 lower character, " +
	"at least 1 upper character, at least 1 number, at least 1 special character ($@!%*?&), minimum length is 8"

type RegisterRequest struct {
	FirstName       string `json:"firstName" validate:"required,max=50"`
	LastName        string `json:"lastName" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token. The token row id is never exposed.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
}
