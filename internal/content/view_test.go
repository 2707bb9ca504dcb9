package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/varoOP/kioskcache/internal/domain"
)

func TestLocalize(t *testing.T) {
	c := &domain.Content{
		Meta: domain.ContentMeta{
			HomeHeadline: domain.Localized{"ko": "안녕", "en": "Hello"},
		},
		Timeline: []domain.TimelineItem{
			{Year: "2020", Entries: map[string]domain.TitleDesc{"ko": {Title: "시작"}, "en": {Title: "Founded"}}},
		},
		Stats: []domain.StatItem{
			{Key: "routes", Value: "16", Labels: domain.Localized{"ko": "라우트"}},
		},
		FAQContract: []map[string]domain.Question{
			{"ko": {Q: "질문", A: "답"}, "zh": {Q: "問題", A: "答"}},
		},
		LoadedFrom: domain.SourceAPI,
	}

	v := Localize(c, "en")
	assert.Equal(t, "en", v.Language)
	assert.Equal(t, domain.SourceAPI, v.LoadedFrom)
	assert.Equal(t, "Hello", v.Headline)
	assert.Equal(t, "Founded", v.Timeline[0].Title)
	assert.Equal(t, "2020", v.Timeline[0].Year)

	// Missing translations fall back to Korean
	assert.Equal(t, "라우트", v.Stats[0].Label)
	assert.Equal(t, "질문", v.FAQ[0].Q)

	// Missing values get the built-in defaults
	assert.Equal(t, defaultCompanyName, v.CompanyName)
	assert.Equal(t, defaultVideoURL, v.VideoURL)
	assert.Equal(t, defaultSubheadline["en"], v.Subheadline)

	zh := Localize(c, "zh")
	assert.Equal(t, "問題", zh.FAQ[0].Q)
	assert.Equal(t, "안녕", zh.Headline)
}

func TestLocalize_EmptyStringsFallBack(t *testing.T) {
	c := &domain.Content{
		Meta: domain.ContentMeta{
			CompanyName:     domain.Localized{"ko": "준은", "zh": ""},
			HomeHeadline:    domain.Localized{"ko": "", "zh": ""},
			HomeSubheadline: domain.Localized{"ko": "부제", "zh": ""},
		},
		Stats: []domain.StatItem{
			{Key: "routes", Value: "16", Labels: domain.Localized{"ko": "라우트", "zh": ""}},
		},
	}

	v := Localize(c, "zh")
	assert.Equal(t, "준은", v.CompanyName)
	assert.Equal(t, defaultHeadline["zh"], v.Headline)
	assert.Equal(t, "부제", v.Subheadline)
	assert.Equal(t, "라우트", v.Stats[0].Label)
}
