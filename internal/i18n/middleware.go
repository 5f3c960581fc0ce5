// Package i18n derives the user's preferred language from the request so
// prompts can be written in it.
package i18n

import (
	"context"
	"net/http"
	"strings"
)

type userLanguageContextKey struct{}

var userLanguageContextKeyInstance = userLanguageContextKey{}

// Middleware stores the user's preferred language in the request context,
// normalized to a lowercase base language tag ("ja-JP,ja;q=0.9" becomes
// "ja").
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if lng := normalize(r.Header.Get("Accept-Language")); lng != "" {
				ctx = context.WithValue(ctx, userLanguageContextKeyInstance, lng)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserLanguage returns the user's preferred base language tag, or the empty
// string when the request carried none.
func UserLanguage(ctx context.Context) string {
	if lng, ok := ctx.Value(userLanguageContextKeyInstance).(string); ok {
		return lng
	}
	return ""
}

func normalize(header string) string {
	lng, _, _ := strings.Cut(header, ",")
	lng, _, _ = strings.Cut(lng, ";")
	lng = strings.TrimSpace(lng)
	lng, _, _ = strings.Cut(lng, "-")
	return strings.ToLower(lng)
}
