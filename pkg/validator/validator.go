package validator

import (
	"errors"
	"mime"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// BlockTypeLookup reports whether a block type is registered.
type BlockTypeLookup func(blockType string) bool

var (
	validate   = validator.New()
	blockTypes BlockTypeLookup

	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Init registers the editor validations on the package validator and on
// gin's binding engine. lookup backs the block_type tag; nil accepts any
// non-empty type.
func Init(lookup BlockTypeLookup) {
	blockTypes = lookup

	validate = validator.New()
	register(validate)
	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
		register(engine)
	}
}

func register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("block_type", func(fl validator.FieldLevel) bool {
		value := strings.ToLower(strings.TrimSpace(fl.Field().String()))
		if value == "" {
			return false
		}
		return blockTypes == nil || blockTypes(value)
	})
	v.RegisterValidation("block_theme", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
		case "", "auto", "light", "dark":
			return true
		}
		return false
	})
}

func Validate(s interface{}) error {
	return validate.Struct(s)
}

// FieldErrors turns a validation failure into field name to message pairs
// for the editor UI. Nil means err did not come from the validator.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldName(fe)] = message(fe)
	}
	return fields
}

// fieldName prefers the json name so messages line up with request bodies.
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	return strings.ToLower(name[:1]) + name[1:]
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be an email address"
	case "slug":
		return "must contain lowercase letters, digits and single dashes"
	case "block_type":
		return "is not a registered block type"
	case "block_theme", "oneof":
		return "must be one of auto, light or dark"
	case "min":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}

func ValidateFileSize(size int64, maxSize int64) bool {
	return size > 0 && size <= maxSize
}

// ValidateContentType reports whether contentType matches one of allowed.
// Entries ending in "/*" match a whole family.
func ValidateContentType(contentType string, allowed []string) bool {
	if contentType == "" || len(allowed) == 0 {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	mediaType = strings.ToLower(mediaType)

	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if mediaType == candidate {
			return true
		}
		if family, ok := strings.CutSuffix(candidate, "/*"); ok && strings.HasPrefix(mediaType, family+"/") {
			return true
		}
	}
	return false
}
