package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/maxviazov/catalog-service/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("firstupper", firstUpper); err != nil {
		panic(err)
	}
	return v
}

// firstUpper passes empty strings; "required" reports those.
func firstUpper(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.ToUpper(r) == r
}

type categoryInput struct {
	Name     string `json:"name" validate:"required,max=80,firstupper"`
	ImageURL string `json:"image_url" validate:"max=300"`
}

type productInput struct {
	Name        string  `json:"name" validate:"required,min=5,max=20,firstupper"`
	Description string  `json:"description" validate:"required,max=10"`
	Price       float64 `json:"price" validate:"min=1,max=10000"`
	ImageURL    string  `json:"image_url" validate:"required,min=10,max=300"`
	Stock       float64 `json:"stock" validate:"gt=0"`
	CategoryID  int64   `json:"category_id" validate:"gt=0"`
}

type productPatchInput struct {
	Stock *float64 `json:"stock" validate:"omitnil,min=1,max=9999"`
}

type registerInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func validateCategory(c model.Category) []FieldError {
	return validateStruct(categoryInput{Name: c.Name, ImageURL: c.ImageURL})
}

func validateProduct(p model.Product) []FieldError {
	return validateStruct(productInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
	})
}

// validatePatch checks the patch fields; a registration date must fall on a later day than now.
func validatePatch(patch model.ProductPatchRequest, now time.Time) []FieldError {
	ferrs := validateStruct(productPatchInput{Stock: patch.Stock})
	if patch.RegisteredAt != nil && !afterDay(*patch.RegisteredAt, now) {
		ferrs = append(ferrs, FieldError{Field: "registered_at", Message: "must be after the current date"})
	}
	return ferrs
}

func afterDay(t, now time.Time) bool {
	ty, tm, td := t.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	return time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC).After(time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC))
}

func validateStruct(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	text := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "min":
		if text {
			return fmt.Sprintf("length must be at least %s", fe.Param())
		}
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "max":
		if text {
			return fmt.Sprintf("length must be at most %s", fe.Param())
		}
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be > %s", fe.Param())
	case "email":
		return "must be a valid e-mail address"
	case "firstupper":
		return "first letter must be upper-case"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
