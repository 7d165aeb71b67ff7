package users

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jHLuno/telfera/internal/pkg/apperr"
)

var userMessages = map[string]string{
	"name":     "Имя должно содержать от 2 до 150 символов",
	"email":    "Неверный формат email",
	"password": "Пароль должен содержать от 6 до 72 символов",
	"role":     "Недопустимая роль",
	"status":   "Недопустимый статус",
}

// userFieldErrors maps validator failures on models.User to field messages.
// A bare Var check (no struct field) is the password check of CreateUser.
func userFieldErrors(err error) apperr.FieldErrors {
	errs := apperr.FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("form", err.Error())
		return errs
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if field == "" {
			field = "password"
		}
		msg, ok := userMessages[field]
		if !ok {
			msg = "Некорректное значение"
		}
		errs.Add(field, msg)
	}
	return errs
}

func auditID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
