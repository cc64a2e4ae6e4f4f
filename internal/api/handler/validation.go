package handler

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/postboard/internal/service"
)

// fieldMessages maps "<json field>.<tag>" to the message returned to clients.
var fieldMessages = map[string]string{
	"text.notblank":     "Text is required.",
	"text.required":     "Text is required.",
	"name.notblank":     "Name is required.",
	"name.required":     "Name is required.",
	"email.required":    "Please include a valid email.",
	"email.email":       "Please include a valid email.",
	"password.required": "Password is required.",
	"password.min":      "Please enter a password with 6 or more characters.",
}

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the notblank tag and json field names on gin's validator.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		}); err != nil {
			registerErr = fmt.Errorf("register notblank: %w", err)
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return registerErr
}

// bindJSON binds the body into req; on failure it writes a 400 and returns false.
// An empty body is validated as an empty object so missing fields get field errors.
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(req)
	}
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fail(c, &service.ValidationError{Fields: []service.FieldError{{Msg: "Invalid request body.", Location: "body"}}})
		return false
	}
	fields := make([]service.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		f := service.FieldError{Msg: fieldMessage(fe), Param: fe.Field(), Location: "body"}
		if fe.Field() == "password" {
			f.Redacted = true
		} else {
			f.Value = fe.Value()
		}
		fields = append(fields, f)
	}
	fail(c, &service.ValidationError{Fields: fields})
	return false
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("Field '%s' is invalid: %s", fe.Field(), fe.Tag())
}
