package db

import (
	"regexp"
	"strings"
)

var kvPairRegex = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)

// IsPostgres reports whether dsn targets postgres (URL or key=value list).
// Anything else is treated as a sqlite path or URI.
func IsPostgres(dsn string) bool {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return true
	}
	return kvPairRegex.MatchString(dsn)
}

// NormalizeDSN trims quotes and whitespace. Postgres key=value lists get
// their spacing collapsed and sslmode=disable when no sslmode is given.
func NormalizeDSN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	if !kvPairRegex.MatchString(s) {
		return s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}

var passwordRegex = regexp.MustCompile(`(password=)([^\s&]+)`)

// MaskDSN hides passwords for logging.
func MaskDSN(dsn string) string {
	masked := passwordRegex.ReplaceAllString(dsn, `${1}***`)
	if i := strings.Index(masked, "://"); i >= 0 {
		if at := strings.Index(masked[i+3:], "@"); at >= 0 {
			creds := masked[i+3 : i+3+at]
			if colon := strings.Index(creds, ":"); colon >= 0 {
				masked = masked[:i+3] + creds[:colon] + ":***" + masked[i+3+at:]
			}
		}
	}
	return masked
}
