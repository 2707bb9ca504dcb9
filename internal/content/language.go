package content

import (
	"github.com/varoOP/kioskcache/internal/domain"
	"golang.org/x/text/language"
)

// supported mirrors domain.SupportedLanguages; the kiosk's Chinese is Traditional
var supported = []language.Tag{
	language.Korean,
	language.MustParse("zh-TW"),
	language.English,
}

var matcher = language.NewMatcher(supported)

// MatchLanguage maps a language tag or an Accept-Language value onto one of
// the kiosk languages. Anything unrecognized gets the default language.
func MatchLanguage(s string) string {
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return domain.DefaultLanguage
	}

	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return domain.DefaultLanguage
	}
	return domain.SupportedLanguages[idx]
}
