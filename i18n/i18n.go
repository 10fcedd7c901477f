// Package i18n turns error and validation codes into user-facing messages.
package i18n

import (
	"context"
	"strings"
)

// DefaultLang is used when no supported language is requested.
const DefaultLang = "en"

var catalog = map[string]map[string]string{
	"en": {
		// validation
		"required":             "Required",
		"too_short":            "Too short",
		"too_long":             "Too long",
		"alphanumeric":         "Only letters and digits are allowed",
		"invalid_choice":       "Invalid choice",
		"invalid_email":        "Invalid email address",
		"invalid_length":       "Invalid length",
		"invalid_format":       "Invalid format",
		"out_of_range":         "Out of range",
		"must_be_after_start":  "Must be after the start date",
		"before_purchase_date": "Must be on or after the date of purchase",
		"must_be_empty":        "Must be empty for this action",
		"validation_failed":    "Please fix the highlighted fields",
		// transport / backend
		"network_error":    "The server could not be reached, please try again",
		"not_found":        "The requested record no longer exists",
		"unauthorized":     "Your session has expired, please sign in again",
		"forbidden":        "You are not allowed to do this",
		"conflict":         "This record is still referenced by other records",
		"has_dependencies": "This record is still referenced by other records",
		"in_use":           "This record is still referenced by other records",
		"server_error":     "Something went wrong, please try again",
		"invalid_json":     "The request body is not valid JSON",
		"invalid_response": "The server sent a response that could not be read",
		// session
		"invalid_credentials": "Invalid email or password",
		// flashes
		"site_created":     "Site created",
		"site_updated":     "Site updated",
		"site_deleted":     "Site deleted",
		"client_created":   "Client created",
		"client_updated":   "Client updated",
		"client_deleted":   "Client deleted",
		"activity_created": "Activity created",
		"activity_updated": "Activity updated",
		"activity_deleted": "Activity deleted",
	},
	"hi": {
		"required":            "आवश्यक",
		"too_short":           "बहुत छोटा",
		"too_long":            "बहुत लंबा",
		"invalid_email":       "अमान्य ईमेल पता",
		"invalid_length":      "अमान्य लंबाई",
		"invalid_format":      "अमान्य प्रारूप",
		"out_of_range":        "सीमा से बाहर",
		"must_be_after_start": "आरंभ तिथि के बाद होना चाहिए",
		"validation_failed":   "कृपया चिह्नित फ़ील्ड ठीक करें",
		"network_error":       "सर्वर से संपर्क नहीं हो सका, कृपया पुनः प्रयास करें",
		"not_found":           "रिकॉर्ड मौजूद नहीं है",
		"unauthorized":        "आपका सत्र समाप्त हो गया है, कृपया फिर से साइन इन करें",
		"server_error":        "कुछ गलत हो गया, कृपया पुनः प्रयास करें",
	},
}

// T translates code into lang, falling back to English and then to the code.
func T(lang, code string) string {
	if m, ok := catalog[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := catalog[DefaultLang][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks the first supported language of an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" {
			continue
		}
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if Supported(base) {
			return base
		}
	}
	return DefaultLang
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := catalog[lang]
	return ok
}

type langKey struct{}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the language stored by WithLang or DefaultLang.
func LangFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(langKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultLang
}
