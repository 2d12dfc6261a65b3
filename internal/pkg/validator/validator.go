package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

var hhmmRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// 24h wall-clock time, "HH:MM"
	validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		return hhmmRe.MatchString(value)
	})

	// Search radius, one of the enumerated options
	validate.RegisterValidation("radius_km", func(fl validator.FieldLevel) bool {
		radius := fl.Field().Float()
		validRadii := []float64{5, 10, 25, 50, 100}
		for _, r := range validRadii {
			if radius == r {
				return true
			}
		}
		return false
	})

	// Minimum-rating floor, one of the filter presets
	validate.RegisterValidation("min_rating", func(fl validator.FieldLevel) bool {
		rating := fl.Field().String()
		validRatings := []string{"", "3", "4", "4.5"}
		for _, r := range validRatings {
			if rating == r {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "latitude":
			errors[field] = "Invalid latitude"
		case "longitude":
			errors[field] = "Invalid longitude"
		case "hhmm":
			errors[field] = "Time must be in 24h HH:MM format"
		case "radius_km":
			errors[field] = "Radius must be one of: 5, 10, 25, 50, 100"
		case "min_rating":
			errors[field] = "Rating floor must be one of: 3, 4, 4.5"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}
