package middleware

import (
	"github.com/damoang/angple-elements/pkg/i18n"
	"github.com/gin-gonic/gin"
)

const localeKey = "locale"

// I18n middleware detects the client's preferred language from Accept-Language header
// and stores it in the gin context for form labels.
func I18n() gin.HandlerFunc {
	return func(c *gin.Context) {
		locale := i18n.ParseAcceptLanguage(c.GetHeader("Accept-Language"))
		if lang := c.Query("lang"); lang != "" {
			locale = i18n.ParseAcceptLanguage(lang)
		}
		c.Set(localeKey, locale)
		c.Header("Content-Language", string(locale))
		c.Next()
	}
}

// GetLocale returns the locale from the gin context (set by I18n middleware)
func GetLocale(c *gin.Context) i18n.Locale {
	if v, exists := c.Get(localeKey); exists {
		if locale, ok := v.(i18n.Locale); ok {
			return locale
		}
	}
	return i18n.DefaultLocale()
}
