package security

import (
	"sort"
	"strings"
)

const mask = "****"

var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token",
	"api_key", "apikey", "credential", "private",
}

// settings is the part of the configuration store the redactor reads
type settings interface {
	Keys() []string
	String(key, def string) string
}

// Redactor hides secret configuration values in text bound for logs and terminals
type Redactor struct {
	secrets []string
}

// NewRedactor - collects the values of every sensitive key in cfg
func NewRedactor(cfg settings) *Redactor {
	r := &Redactor{}
	for _, k := range cfg.Keys() {
		if !IsSensitiveKey(k) {
			continue
		}
		if v := cfg.String(k, ""); len(v) >= 3 {
			r.secrets = append(r.secrets, v)
		}
	}
	// longest first, so a secret containing another is masked whole
	sort.Slice(r.secrets, func(i, j int) bool { return len(r.secrets[i]) > len(r.secrets[j]) })
	return r
}

// IsSensitiveKey reports whether a configuration key names a secret
func IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}

// Value returns value, masked when key is sensitive
func (r *Redactor) Value(key, value string) string {
	if IsSensitiveKey(key) && value != "" {
		return mask
	}
	return value
}

// Redact masks every known secret occurring in s
func (r *Redactor) Redact(s string) string {
	if r == nil {
		return s
	}
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, mask)
	}
	return s
}
