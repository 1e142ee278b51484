package handlers

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

type LoginForm struct {
	Email    string `form:"email" binding:"required,email,max=64"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

type RegisterForm struct {
	Email     string `form:"email" binding:"required,email,max=64"`
	Username  string `form:"username" binding:"required,max=64"`
	Password  string `form:"password" binding:"required,min=6"`
	Password2 string `form:"password2" binding:"required,eqfield=Password"`
	Captcha   string `form:"captcha" binding:"required"`
}

type ProfileForm struct {
	Name     string `form:"name" binding:"max=64"`
	Location string `form:"location" binding:"max=64"`
	AboutMe  string `form:"about_me"`
}

type AdminProfileForm struct {
	Email    string `form:"email" binding:"required,email,max=64"`
	Username string `form:"username" binding:"required,max=64"`
	RoleID   uint   `form:"role" binding:"required"`
	Name     string `form:"name" binding:"max=64"`
	Location string `form:"location" binding:"max=64"`
	AboutMe  string `form:"about_me"`
}

type PostForm struct {
	Subject string `form:"subject" binding:"required,max=128"`
	Body    string `form:"body" binding:"required"`
}

// BodyForm serves replies and comments.
type BodyForm struct {
	Body string `form:"body" binding:"required"`
}

type FormErrors map[string]string

func (e FormErrors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)

func validUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// formErrors turns a binding error into per-field messages keyed by the form
// field name.
func formErrors(err error) FormErrors {
	out := FormErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("form", "Invalid form submission.")
		return out
	}
	for _, fe := range verrs {
		out.Add(fieldName(fe.Field()), fieldMessage(fe))
	}
	return out
}

var fieldNames = map[string]string{
	"AboutMe":   "about_me",
	"RoleID":    "role",
	"Password2": "password2",
}

func fieldName(field string) string {
	if name, ok := fieldNames[field]; ok {
		return name
	}
	return strings.ToLower(field)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters.", fe.Param())
	case "eqfield":
		return "Passwords must match."
	}
	return "Invalid value."
}
