package userauth

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// WriteError renders an error as a JSON response. Rich errors keep
// their HTTP code and text code, anything else becomes a 500.
func WriteError(c router.Context, err error, logger Logger) error {
	if logger == nil {
		logger = defaultLogger()
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	logger.Info(
		"request error",
		"error", richErr.Message,
		"category", richErr.Category,
		"text_code", richErr.TextCode,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status := richErr.Code
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	}
	if len(richErr.Metadata) > 0 {
		body["details"] = richErr.Metadata
	}

	return c.JSON(status, body)
}

// WriteValidationError renders ozzo validation failures as a 400 with a
// field error map.
func WriteValidationError(c router.Context, err error) error {
	body := map[string]any{
		"error": "validation failed",
	}

	if fieldErrs, ok := err.(validation.Errors); ok {
		fields := make(map[string]string, len(fieldErrs))
		for field, ferr := range fieldErrs {
			fields[field] = ferr.Error()
		}
		body["fields"] = fields
	} else {
		body["error"] = err.Error()
	}

	return c.JSON(router.StatusBadRequest, body)
}
