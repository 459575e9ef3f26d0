package services

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// translateValidationErrors переводит ошибки validator в сообщения для
// клиента и помечает их как ErrInvalidInput
func translateValidationErrors(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var errorMessages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
		case "min":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать минимум "+e.Param()+" символов")
		case "max":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать максимум "+e.Param()+" символов")
		case "oneof":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть одним из: "+e.Param())
		case "email":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть корректным email")
		case "len":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать ровно "+e.Param()+" символов")
		default:
			errorMessages = append(errorMessages, "поле "+e.Field()+" не прошло проверку "+e.Tag())
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(errorMessages, "; "))
}
