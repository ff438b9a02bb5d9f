package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"afa.directory/internal/directory"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type companyRequest struct {
	NameEN string `json:"name_en" validate:"required"`
	NameFA string `json:"name_fa" validate:"required"`
}

func (c companyRequest) input() directory.CompanyInput {
	return directory.CompanyInput{NameEN: c.NameEN, NameFA: c.NameFA}
}

type employeeRequest struct {
	CompanyID *int64 `json:"company_id"`
	NameEN    string `json:"name_en" validate:"required"`
	NameFA    string `json:"name_fa" validate:"required"`
	TitleEN   string `json:"title_en"`
	TitleFA   string `json:"title_fa"`
	DeptEN    string `json:"dept_en"`
	DeptFA    string `json:"dept_fa"`
	Extension string `json:"extension" validate:"required"`
	Mobile    string `json:"mobile"`
	Email     string `json:"email"`
	Photo     string `json:"photo"`
	Icon      string `json:"icon" validate:"omitempty,oneof=male female unknown"`
}

func (e employeeRequest) input() directory.EmployeeInput {
	return directory.EmployeeInput{
		CompanyID: e.CompanyID,
		NameEN:    e.NameEN,
		NameFA:    e.NameFA,
		TitleEN:   e.TitleEN,
		TitleFA:   e.TitleFA,
		DeptEN:    e.DeptEN,
		DeptFA:    e.DeptFA,
		Extension: e.Extension,
		Mobile:    e.Mobile,
		Email:     e.Email,
		Photo:     e.Photo,
		Gender:    e.Icon,
	}
}

type visibilityRequest struct {
	Visible *int `json:"visible" validate:"required,oneof=0 1"`
}

type mobileRequest struct {
	ShowMobile *int `json:"show_mobile" validate:"required,oneof=0 1"`
}

type emailRequest struct {
	ShowEmail *int `json:"show_email" validate:"required,oneof=0 1"`
}

type adminRequest struct {
	Username  string `json:"username" validate:"required,max=64"`
	Password  string `json:"password" validate:"required,min=8"`
	Email     string `json:"email" validate:"omitempty,email"`
	Role      string `json:"role" validate:"omitempty,oneof=admin super_admin"`
	CompanyID *int64 `json:"company_id"`
}

func (a adminRequest) input() directory.AdminInput {
	return directory.AdminInput{
		Username:  a.Username,
		Password:  a.Password,
		Email:     a.Email,
		Role:      a.Role,
		CompanyID: a.CompanyID,
	}
}

// toggleRequest decodes the body for t and returns the requested value.
func toggleRequest(t directory.Toggle) (any, func() int) {
	switch t {
	case directory.ToggleShowMobile:
		req := &mobileRequest{}
		return req, func() int { return *req.ShowMobile }
	case directory.ToggleShowEmail:
		req := &emailRequest{}
		return req, func() int { return *req.ShowEmail }
	default:
		req := &visibilityRequest{}
		return req, func() int { return *req.Visible }
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage renders validator errors as one client-facing sentence.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "email":
			parts = append(parts, fe.Field()+" must be a valid email")
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
