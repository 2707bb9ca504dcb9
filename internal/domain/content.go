package domain

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// DefaultLanguage is used whenever a string is missing for the active language
const DefaultLanguage = "ko"

// SupportedLanguages lists the kiosk UI languages in display order
var SupportedLanguages = []string{"ko", "zh", "en"}

type ContentSource string

const (
	SourceNone     ContentSource = "none"
	SourceAPI      ContentSource = "api"
	SourceFallback ContentSource = "fallback"
)

// Localized holds one string per language
type Localized map[string]string

// Get returns the string for lang, falling back to the default language.
// An empty string counts as missing.
func (l Localized) Get(lang string) string {
	if v := l[lang]; v != "" {
		return v
	}
	return l[DefaultLanguage]
}

// Localize picks the value for lang, then the default language, then the zero value
func Localize[T any](m map[string]T, lang string) T {
	if v, ok := m[lang]; ok {
		return v
	}
	if v, ok := m[DefaultLanguage]; ok {
		return v
	}
	var zero T
	return zero
}

// Content is the payload served by the content endpoint
type Content struct {
	OK          bool                   `json:"ok"`
	GeneratedAt string                 `json:"generatedAt"`
	Meta        ContentMeta            `json:"meta"`
	Timeline    []TimelineItem         `json:"timeline"`
	Stats       []StatItem             `json:"stats"`
	FAQContract []map[string]Question  `json:"faq_contract"`
	DiffPoints  []map[string]TitleDesc `json:"diff_points"`

	LoadedFrom ContentSource `json:"-"`
}

type ContentMeta struct {
	CompanyName     Localized `json:"companyName"`
	HomeHeadline    Localized `json:"homeHeadline"`
	HomeSubheadline Localized `json:"homeSubheadline"`
	VideoURL        Localized `json:"videoUrl"`
}

type TitleDesc struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

type Question struct {
	Q string `json:"q"`
	A string `json:"a"`
}

type StatItem struct {
	Key    string    `json:"key"`
	Value  string    `json:"value"`
	Labels Localized `json:"labels"`
}

// TimelineItem carries a year next to per-language entries:
// {"year":"2020","ko":{...},"en":{...}}
type TimelineItem struct {
	Year    string
	Entries map[string]TitleDesc
}

func (t *TimelineItem) UnmarshalJSON(b []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Wrap(err, "failed to unmarshal timeline item")
	}

	t.Entries = make(map[string]TitleDesc, len(raw))
	for k, v := range raw {
		if k == "year" {
			if err := json.Unmarshal(v, &t.Year); err != nil {
				return errors.Wrap(err, "failed to unmarshal timeline year")
			}
			continue
		}
		var td TitleDesc
		if err := json.Unmarshal(v, &td); err != nil {
			return errors.Wrapf(err, "failed to unmarshal timeline entry %q", k)
		}
		t.Entries[k] = td
	}
	return nil
}

func (t TimelineItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Entries)+1)
	for k, v := range t.Entries {
		out[k] = v
	}
	out["year"] = t.Year
	return json.Marshal(out)
}
