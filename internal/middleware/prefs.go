package middleware

import (
	"net/http"
	"net/url"

	"github.com/diewo77/go-hoardings/i18n"
)

const (
	langCookie  = "lang"
	flashCookie = "flash"
	cookieAge   = 86400 * 30
)

// Lang resolves the message language (query > cookie > Accept-Language) and
// stores it with i18n.WithLang. A supported ?lang= is remembered in a cookie.
func Lang(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie(langCookie); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); i18n.Supported(ql) {
			lang = ql
			http.SetCookie(w, &http.Cookie{Name: langCookie, Value: lang, Path: "/", MaxAge: cookieAge, SameSite: http.SameSiteLaxMode})
		}
		if lang == "" {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

// Flash sets a translated one-shot message cookie for the UI.
func Flash(w http.ResponseWriter, r *http.Request, code string) {
	msg := i18n.T(i18n.LangFromContext(r.Context()), code)
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: url.QueryEscape(msg), Path: "/", SameSite: http.SameSiteLaxMode})
}
