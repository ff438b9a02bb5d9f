package directory

import (
	"fmt"
	"strings"
	"time"
)

const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderUnknown = "unknown"
)

// Bilingual is a pair of English and Persian strings.
type Bilingual struct {
	EN string `json:"en"`
	FA string `json:"fa"`
}

type Company struct {
	ID        int64     `json:"id" db:"id"`
	NameEN    string    `json:"name_en" db:"name_en"`
	NameFA    string    `json:"name_fa" db:"name_fa"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName is the name copied into activity entries.
func (c Company) DisplayName() string {
	return firstNonEmpty(c.NameFA, c.NameEN)
}

// Employee is a persisted employee row joined with its company names.
type Employee struct {
	ID         int64     `db:"id"`
	CompanyID  *int64    `db:"company_id"`
	CompanyEN  string    `db:"company_name_en"`
	CompanyFA  string    `db:"company_name_fa"`
	NameEN     string    `db:"name_en"`
	NameFA     string    `db:"name_fa"`
	TitleEN    string    `db:"title_en"`
	TitleFA    string    `db:"title_fa"`
	DeptEN     string    `db:"dept_en"`
	DeptFA     string    `db:"dept_fa"`
	Extension  string    `db:"extension"`
	Mobile     string    `db:"mobile"`
	Email      string    `db:"email"`
	Photo      string    `db:"photo"`
	Gender     string    `db:"icon"`
	Visible    int       `db:"visible"`
	ShowMobile int       `db:"show_mobile"`
	ShowEmail  int       `db:"show_email"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// DisplayName is the name copied into activity entries.
func (e Employee) DisplayName() string {
	return firstNonEmpty(e.NameFA, e.NameEN)
}

// EmployeeView is the wire projection of an employee.
type EmployeeView struct {
	ID         int64     `json:"id"`
	CompanyID  *int64    `json:"company_id"`
	Company    Bilingual `json:"company"`
	Name       Bilingual `json:"name"`
	Title      Bilingual `json:"title"`
	Department Bilingual `json:"department"`
	Extension  string    `json:"extension"`
	Mobile     string    `json:"mobile"`
	Email      string    `json:"email"`
	Photo      string    `json:"photo"`
	Gender     string    `json:"gender"`
	Visible    int       `json:"visible"`
	ShowMobile int       `json:"show_mobile"`
	ShowEmail  int       `json:"show_email"`
}

// View projects the employee with every field present.
func (e Employee) View() EmployeeView {
	gender := e.Gender
	if gender == "" {
		gender = GenderUnknown
	}
	return EmployeeView{
		ID:         e.ID,
		CompanyID:  e.CompanyID,
		Company:    Bilingual{EN: e.CompanyEN, FA: e.CompanyFA},
		Name:       Bilingual{EN: e.NameEN, FA: e.NameFA},
		Title:      Bilingual{EN: e.TitleEN, FA: e.TitleFA},
		Department: Bilingual{EN: e.DeptEN, FA: e.DeptFA},
		Extension:  e.Extension,
		Mobile:     e.Mobile,
		Email:      e.Email,
		Photo:      e.Photo,
		Gender:     gender,
		Visible:    flagValue(e.Visible),
		ShowMobile: flagValue(e.ShowMobile),
		ShowEmail:  flagValue(e.ShowEmail),
	}
}

// PublicView is View with mobile and email blanked when their flags are off.
func (e Employee) PublicView() EmployeeView {
	v := e.View()
	if v.ShowMobile == 0 {
		v.Mobile = ""
	}
	if v.ShowEmail == 0 {
		v.Email = ""
	}
	return v
}

// flagValue coerces a stored flag to exactly 0 or 1.
func flagValue(v int) int {
	if v == 0 {
		return 0
	}
	return 1
}

// Admin is an administrator account without credential material.
type Admin struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     *string   `json:"email" db:"email"`
	Role      string    `json:"role" db:"role"`
	CompanyID *int64    `json:"company_id" db:"company_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CompanyInput carries the mutable company fields.
type CompanyInput struct {
	NameEN string
	NameFA string
}

// Normalize trims fields and checks both names are present.
func (in CompanyInput) Normalize() (CompanyInput, error) {
	in.NameEN = strings.TrimSpace(in.NameEN)
	in.NameFA = strings.TrimSpace(in.NameFA)
	if in.NameEN == "" || in.NameFA == "" {
		return CompanyInput{}, fmt.Errorf("%w: name_en and name_fa required", ErrInvalidInput)
	}
	return in, nil
}

// EmployeeInput is the full mutable employee field set. Updates replace every field.
type EmployeeInput struct {
	CompanyID *int64 `json:"company_id"`
	NameEN    string `json:"name_en"`
	NameFA    string `json:"name_fa"`
	TitleEN   string `json:"title_en"`
	TitleFA   string `json:"title_fa"`
	DeptEN    string `json:"dept_en"`
	DeptFA    string `json:"dept_fa"`
	Extension string `json:"extension"`
	Mobile    string `json:"mobile"`
	Email     string `json:"email"`
	Photo     string `json:"photo"`
	Gender    string `json:"icon"`
}

// Normalize trims fields, defaults the gender tag and checks the required fields.
func (in EmployeeInput) Normalize() (EmployeeInput, error) {
	for _, f := range []*string{
		&in.NameEN, &in.NameFA, &in.TitleEN, &in.TitleFA, &in.DeptEN, &in.DeptFA,
		&in.Extension, &in.Mobile, &in.Email, &in.Photo,
	} {
		*f = strings.TrimSpace(*f)
	}
	if in.NameEN == "" || in.NameFA == "" || in.Extension == "" {
		return EmployeeInput{}, fmt.Errorf("%w: name_en, name_fa, and extension required", ErrInvalidInput)
	}
	in.Gender = strings.ToLower(strings.TrimSpace(in.Gender))
	switch in.Gender {
	case "":
		in.Gender = GenderUnknown
	case GenderMale, GenderFemale, GenderUnknown:
	default:
		return EmployeeInput{}, fmt.Errorf("%w: icon must be male, female or unknown", ErrInvalidInput)
	}
	if in.CompanyID != nil && *in.CompanyID <= 0 {
		in.CompanyID = nil
	}
	return in, nil
}

// DisplayName is the name copied into activity entries.
func (in EmployeeInput) DisplayName() string {
	return firstNonEmpty(in.NameFA, in.NameEN)
}

// Toggle names one of the three independently switchable employee flags.
type Toggle string

const (
	ToggleVisible    Toggle = "visible"
	ToggleShowMobile Toggle = "show_mobile"
	ToggleShowEmail  Toggle = "show_email"
)

// Column is the employees column backing the toggle.
func (t Toggle) Column() (string, bool) {
	switch t {
	case ToggleVisible, ToggleShowMobile, ToggleShowEmail:
		return string(t), true
	}
	return "", false
}

// AdminInput carries a new administrator account.
type AdminInput struct {
	Username  string
	Password  string
	Email     string
	Role      string
	CompanyID *int64
}

// NewAdmin is an AdminInput whose password has already been hashed.
type NewAdmin struct {
	Username     string
	PasswordHash string
	Email        *string
	Role         string
	CompanyID    *int64
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
