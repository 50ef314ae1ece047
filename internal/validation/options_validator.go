package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/veranemoloko/ytfetch/internal/domain"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
)

// ValidateOptions rejects download options before any work starts.
// The returned error wraps ErrConfiguration.
func ValidateOptions(opts domain.DownloadOptions) error {
	if err := validate.Struct(opts); err != nil {
		return fmt.Errorf("%w: %s", errpkg.ErrConfiguration, describe(err))
	}
	return nil
}

// ValidateStruct runs the struct tags of s, used for HTTP request bodies.
func ValidateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %s", errpkg.ErrConfiguration, describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s], got %v", strings.ToLower(fe.Field()), fe.Param(), fe.Value()))
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "gte":
			parts = append(parts, fmt.Sprintf("%s must be >= %s, got %v", strings.ToLower(fe.Field()), fe.Param(), fe.Value()))
		case "gt":
			parts = append(parts, fmt.Sprintf("%s must be > %s, got %v", strings.ToLower(fe.Field()), fe.Param(), fe.Value()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
