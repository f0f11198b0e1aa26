package config

import (
	"os"
	"strconv"
	"strings"
)

// Settings is a key/value tunables provider. Lookups check SETTING_<KEY> in the environment
// first (dots become underscores), then the configured map, then the caller's default.
type Settings struct {
	values map[string]string
}

func NewSettings(values map[string]string) *Settings {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return &Settings{values: cp}
}

func (s *Settings) lookup(key string) (string, bool) {
	envKey := "SETTING_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v, true
	}
	if s == nil {
		return "", false
	}
	v, ok := s.values[strings.ToLower(key)]
	return v, ok && v != ""
}

func (s *Settings) GetInt(key string, def int) int {
	raw, ok := s.lookup(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return i
}

func (s *Settings) GetBool(key string, def bool) bool {
	raw, ok := s.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}
