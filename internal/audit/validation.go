package audit

import (
	"fmt"
	"strings"

	"github.com/dagbolade/echoguard/internal/accesslog"
)

const maxFieldLength = 256

func validateRecord(rec Record) error {
	if strings.TrimSpace(rec.AppName) == "" {
		return &accesslog.ValidationError{Field: "app_name"}
	}
	if strings.TrimSpace(rec.Permission) == "" {
		return &accesslog.ValidationError{Field: "permission"}
	}
	if len(rec.AppName) > maxFieldLength || len(rec.Permission) > maxFieldLength {
		return &FieldTooLongError{Max: maxFieldLength}
	}
	return nil
}

type FieldTooLongError struct {
	Max int
}

func (e *FieldTooLongError) Error() string {
	return fmt.Sprintf("field exceeds %d characters", e.Max)
}
