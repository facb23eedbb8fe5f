package logger

import (
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"
)

// telegramToken matches a token embedded in a Bot API URL: bot<id>:<secret>
var telegramToken = regexp.MustCompile(`\bbot\d+:[A-Za-z0-9_-]{35,}`)

const tokenMask = "bot***:***masked-token***"

// MaskTokens replaces Bot API tokens in text
func MaskTokens(text string) string {
	return telegramToken.ReplaceAllString(text, tokenMask)
}

// TokenMaskHook masks Bot API tokens in messages, string fields and errors.
type TokenMaskHook struct{}

func NewTokenMaskHook() *TokenMaskHook {
	return &TokenMaskHook{}
}

func (h *TokenMaskHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *TokenMaskHook) Fire(entry *logrus.Entry) error {
	entry.Message = MaskTokens(entry.Message)

	for k, v := range entry.Data {
		switch val := v.(type) {
		case string:
			entry.Data[k] = MaskTokens(val)
		case error:
			if masked := MaskTokens(val.Error()); masked != val.Error() {
				entry.Data[k] = fmt.Errorf("%s", masked)
			}
		case fmt.Stringer:
			if masked := MaskTokens(val.String()); masked != val.String() {
				entry.Data[k] = masked
			}
		}
	}
	return nil
}
