package auth

import "errors"

var (
	// ErrFieldsRequired indicates a required registration field was blank.
	ErrFieldsRequired = errors.New("all fields are required")
	// ErrAvatarRequired indicates the avatar file was missing or its upload failed.
	ErrAvatarRequired = errors.New("avatar file is required")
	// ErrCredentialsRequired indicates the login request carried no usable credentials.
	ErrCredentialsRequired = errors.New("username or email and password are required")
	// ErrUserExists indicates the username or email is already taken.
	ErrUserExists = errors.New("user with email or username already exists")
	// ErrUserNotFound indicates no account matches the supplied identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidPassword indicates the supplied password does not match the stored hash.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrTokenInvalid indicates a malformed or wrongly signed token.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired indicates the token's validity window has passed.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenReplayed indicates a refresh token that was already rotated or revoked.
	// It is distinguishable from ErrTokenInvalid so clients can prompt a re-login.
	ErrTokenReplayed = errors.New("refresh token is expired or used")
)
