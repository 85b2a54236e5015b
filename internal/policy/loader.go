package policy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

func DefaultRules() Rules {
	return Rules{
		TrustedApps: []string{
			"Chrome", "Firefox", "Safari", "Edge", "WhatsApp",
			"Telegram", "Gmail", "Photos", "Settings",
		},
		SensitivePermissions: []string{
			"camera", "microphone", "location", "storage", "contacts", "files",
		},
		RepeatWindow:    5 * time.Minute,
		RepeatThreshold: 3,
	}
}

// LoadRules reads a YAML rules file. Keys missing from the file keep their
// default values.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (Rules, error) {
	rules := DefaultRules()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
		return Rules{}, fmt.Errorf("parse rules: %w", err)
	}

	if err := rules.validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func (r Rules) validate() error {
	if r.RepeatWindow < 0 {
		return fmt.Errorf("repeat_window must not be negative")
	}
	if r.RepeatThreshold < 0 {
		return fmt.Errorf("repeat_threshold must not be negative")
	}
	return nil
}
