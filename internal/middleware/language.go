package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/pkg/translator"
	"golang.org/x/text/language"
)

var supported = language.NewMatcher([]language.Tag{language.English, language.French})

// LanguageMiddleware picks the response language from Accept-Language.
func LanguageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := translator.LanguageEn

		if header := c.GetHeader("Accept-Language"); header != "" {
			tags, _, err := language.ParseAcceptLanguage(header)
			if err == nil && len(tags) > 0 {
				_, index, confidence := supported.Match(tags...)
				if confidence != language.No && index == 1 {
					lang = translator.LanguageFr
				}
			}
		}

		c.Set(types.ContextLangKey, lang)
		c.Next()
	}
}

func GetLang(c *gin.Context) string {
	if lang, exists := c.Get(types.ContextLangKey); exists {
		if s, ok := lang.(string); ok {
			return s
		}
	}
	return translator.LanguageEn
}
