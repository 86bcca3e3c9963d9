// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/collab-backend/internal/i18n"
)

// I18nMiddleware picks the response language from Accept-Language, falling
// back to defaultLang for anything without loaded translations.
func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	if defaultLang == "" {
		defaultLang = i18n.DefaultLanguage
	}
	return func(c *gin.Context) {
		lang := defaultLang

		// Handle cases like "zh-TW,zh;q=0.9,en;q=0.8"
		if header := c.GetHeader("Accept-Language"); header != "" {
			first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
			// Convert common language codes
			switch first {
			case "zh-TW", "zh-Hant", "zh_TW":
				first = "zh_TW"
			case "en-US", "en-GB":
				first = "en"
			}
			if i18n.Supported(first) {
				lang = first
			}
		}

		// Set language in context
		c.Set("lang", lang)
		c.Next()
	}
}
