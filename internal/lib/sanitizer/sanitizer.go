// Package sanitizer очищает пользовательский текст объявлений от HTML.
package sanitizer

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer очищает строку, введённую пользователем.
type Sanitizer interface {
	Sanitize(raw string) string
}

type textSanitizer struct {
	policy *bluemonday.Policy
}

// New возвращает Sanitizer со строгой политикой: все теги удаляются, текст остаётся.
// Policy потокобезопасна, один экземпляр используется всеми запросами.
func New() Sanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *textSanitizer) Sanitize(raw string) string {
	// bluemonday экранирует сущности, в базе храним обычный текст
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
