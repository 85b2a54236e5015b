package policy

import (
	"context"
	"time"
)

const (
	ReasonUntrustedApp        = "Untrusted app"
	ReasonSensitivePermission = "Sensitive permission"
	ReasonRepeatedAccess      = "Repeated access"
	ReasonNormal              = "Normal access"
)

// Rules drive the suspicion classifier. They are loaded from YAML.
type Rules struct {
	TrustedApps          []string      `yaml:"trusted_apps"`
	SensitivePermissions []string      `yaml:"sensitive_permissions"`
	RepeatWindow         time.Duration `yaml:"repeat_window"`
	RepeatThreshold      int           `yaml:"repeat_threshold"`
}

// Verdict is the classifier result for one access event.
type Verdict struct {
	Suspicious bool     `json:"is_suspicious"`
	Reason     string   `json:"reason"`
	Reasons    []string `json:"-"`
}

// RecentCounter reports how many events for the same app and permission were
// stored at or after since.
type RecentCounter interface {
	CountRecent(ctx context.Context, appName, permission string, since time.Time) (int, error)
}

// Classifier assigns a verdict to an access event before it is stored.
type Classifier interface {
	Classify(ctx context.Context, appName, permission string) (Verdict, error)
}
