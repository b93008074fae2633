package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Softaculous installation ids are "<script id>_<n>".
var insIDRegex = regexp.MustCompile(`^[0-9]+_[0-9]+$`)

func init() {
	validate.RegisterValidation("insid", func(fl validator.FieldLevel) bool {
		return insIDRegex.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("subdir", func(fl validator.FieldLevel) bool {
		return validSubdir(fl.Field().String())
	})
}

// validSubdir accepts an install directory relative to the document root.
func validSubdir(dir string) bool {
	if strings.ContainsAny(dir, "\\\x00") {
		return false
	}
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if part == ".." || part == "." {
			return false
		}
	}
	return true
}

func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return Validate(v)
}

// Validate runs struct validation on an already populated request.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}
