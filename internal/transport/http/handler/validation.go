package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

type formField struct {
	name  string // key in the response body
	label string // used in messages
}

var formFields = map[string]formField{
	"Email":     {name: "email", label: "Email"},
	"FirstName": {name: "firstName", label: "First name"},
	"LastName":  {name: "lastName", label: "Last name"},
}

// fieldErrors turns validator errors into {field: message} for inline display.
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["form"] = errInvalidForm
		return out
	}

	for _, fe := range verrs {
		f, ok := formFields[fe.StructField()]
		if !ok {
			f = formField{name: fe.Field(), label: fe.Field()}
		}
		if _, seen := out[f.name]; seen {
			continue
		}
		switch fe.Tag() {
		case "required":
			out[f.name] = f.label + " is required"
		case "email":
			out[f.name] = "Invalid email"
		case "max":
			out[f.name] = fmt.Sprintf("%s must be at most %s characters", f.label, fe.Param())
		default:
			out[f.name] = f.label + " is invalid"
		}
	}
	return out
}
