// Package validation normalizes raw lead submissions and checks them, collecting every failing field.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/internal/pkg/apperr"
)

const (
	MaxNameLength    = 100
	MaxProductLength = 100
	MaxEmailLength   = 255
	MaxCompanyLength = 200
	MaxNotesLength   = 2000
	MaxSourceLength  = 50
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

var phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "")

// LeadSubmission accepts both public form shapes: the quick
// {name, phone, product} form and the contact form with client* fields.
type LeadSubmission struct {
	Name    string `json:"name" form:"name"`
	Phone   string `json:"phone" form:"phone"`
	Product string `json:"product" form:"product"`

	ClientName      string `json:"clientName" form:"clientName"`
	ClientPhone     string `json:"clientPhone" form:"clientPhone"`
	ClientEmail     string `json:"clientEmail" form:"clientEmail"`
	Company         string `json:"company" form:"company"`
	ProductInterest string `json:"productInterest" form:"productInterest"`
	Notes           string `json:"notes" form:"notes"`
	Source          string `json:"source" form:"source"`
}

// normalizedLead is the checked shape. The field tag names the key used in error maps.
type normalizedLead struct {
	Name            string `field:"name" validate:"required,min=2,max=100"`
	Phone           string `field:"phone" validate:"required,leadphone"`
	ProductRequired bool   `field:"-"`
	Product         string `field:"product" validate:"required_if=ProductRequired true,max=100"`
	Email           string `field:"email" validate:"omitempty,email,max=255"`
	Company         string `field:"company" validate:"max=200"`
	Notes           string `field:"notes" validate:"max=2000"`
	Source          string `field:"source" validate:"max=50"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("field")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("leadphone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// NormalizePhone strips spaces, dashes and parentheses. It is idempotent.
func NormalizePhone(raw string) string {
	return phoneStripper.Replace(strings.TrimSpace(raw))
}

// NormalizeName trims surrounding whitespace.
func NormalizeName(raw string) string {
	return strings.TrimSpace(raw)
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// IsValidPhone reports whether an already normalized phone is acceptable.
func IsValidPhone(normalized string) bool {
	return phonePattern.MatchString(normalized)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ValidateLeadSubmission normalizes raw and checks every rule. On success it
// returns a lead ready to persist (status and id are left to the caller).
// On failure it returns all field errors at once.
func ValidateLeadSubmission(raw LeadSubmission) (*models.Lead, apperr.FieldErrors) {
	source := strings.TrimSpace(raw.Source)
	if source == "" {
		source = models.LeadSourceWebsite
	}

	n := normalizedLead{
		Name:            NormalizeName(firstNonEmpty(raw.ClientName, raw.Name)),
		Phone:           NormalizePhone(firstNonEmpty(raw.ClientPhone, raw.Phone)),
		ProductRequired: source != models.LeadSourceContactForm,
		Product:         strings.TrimSpace(firstNonEmpty(raw.ProductInterest, raw.Product)),
		Email:           NormalizeEmail(raw.ClientEmail),
		Company:         strings.TrimSpace(raw.Company),
		Notes:           strings.TrimSpace(raw.Notes),
		Source:          source,
	}

	if errs := check(n); errs.HasErrors() {
		return nil, errs
	}

	return &models.Lead{
		ClientName:      n.Name,
		ClientPhone:     n.Phone,
		ClientEmail:     n.Email,
		Company:         n.Company,
		ProductInterest: n.Product,
		Notes:           n.Notes,
		Source:          n.Source,
	}, nil
}

// ValidateNotes checks a notes update coming with a status change.
func ValidateNotes(notes string) apperr.FieldErrors {
	errs := apperr.FieldErrors{}
	if len([]rune(notes)) > MaxNotesLength {
		errs.Add("notes", messageFor("notes", "max"))
	}
	return errs
}

func check(n normalizedLead) apperr.FieldErrors {
	errs := apperr.FieldErrors{}
	err := getValidator().Struct(n)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("form", err.Error())
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), messageFor(fe.Field(), fe.Tag()))
	}
	return errs
}

var messages = map[string]map[string]string{
	"name": {
		"required": "Укажите имя",
		"min":      "Имя должно содержать минимум 2 символа",
		"max":      "Имя не должно превышать 100 символов",
	},
	"phone": {
		"required":  "Укажите номер телефона",
		"leadphone": "Неверный формат телефона",
	},
	"product": {
		"required_if": "Выберите интересующий товар",
		"max":         "Название товара не должно превышать 100 символов",
	},
	"email": {
		"email": "Неверный формат email",
		"max":   "Email не должен превышать 255 символов",
	},
	"company": {
		"max": "Название компании не должно превышать 200 символов",
	},
	"notes": {
		"max": "Комментарий не должен превышать 2000 символов",
	},
	"source": {
		"max": "Источник не должен превышать 50 символов",
	},
}

func messageFor(field, tag string) string {
	if m, ok := messages[field][tag]; ok {
		return m
	}
	return "Некорректное значение"
}
