package policy

import (
	"strings"
)

// evaluate applies rules to one event. recent is the number of earlier events
// for the same app and permission inside the repeat window.
func evaluate(rules Rules, appName, permission string, recent int) Verdict {
	var reasons []string

	if !isTrusted(rules.TrustedApps, appName) {
		reasons = append(reasons, ReasonUntrustedApp)
	}

	if isSensitive(rules.SensitivePermissions, permission) {
		reasons = append(reasons, ReasonSensitivePermission)
	}

	if rules.RepeatThreshold > 0 && recent >= rules.RepeatThreshold {
		reasons = append(reasons, ReasonRepeatedAccess)
	}

	if len(reasons) == 0 {
		return Verdict{Reason: ReasonNormal}
	}

	return Verdict{
		Suspicious: true,
		Reason:     strings.Join(reasons, ", "),
		Reasons:    reasons,
	}
}

// App names match exactly.
func isTrusted(trusted []string, appName string) bool {
	for _, app := range trusted {
		if app == appName {
			return true
		}
	}
	return false
}

func isSensitive(sensitive []string, permission string) bool {
	for _, p := range sensitive {
		if strings.EqualFold(p, permission) {
			return true
		}
	}
	return false
}
