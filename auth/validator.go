package auth

import (
	"unicode"

	"chat-hub/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=64"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Bio      string `json:"bio" validate:"max=256"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type NewGroupRequest struct {
	Name    string   `json:"name" validate:"required,max=64"`
	Members []string `json:"members" validate:"required,min=2,max=100"`
}

type AddMembersRequest struct {
	ChatID  string   `json:"chatId" validate:"required"`
	Members []string `json:"members" validate:"required,min=1,max=97"`
}

type RemoveMemberRequest struct {
	ChatID string `json:"chatId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

type RenameGroupRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

type SendRequestRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type AcceptRequestRequest struct {
	RequestID string `json:"requestId" validate:"required"`
	Accept    *bool  `json:"accept" validate:"required"`
}

func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}

	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

// ValidateStruct runs the tag rules of any request struct.
func ValidateStruct(req any) error {
	return validate.Struct(req)
}

func isPasswordComplex(s string) bool {
	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
