package content

import (
	"github.com/varoOP/kioskcache/internal/domain"
)

const (
	defaultCompanyName = "(주)준은로지스틱스"
	defaultVideoURL    = "assets/hero.mp4"
)

// Static UI copy used when the content leaves a heading blank
var (
	defaultHeadline = domain.Localized{
		"ko": "협업과 상생 소통이 가장 중요한 영업점",
		"zh": "協作與共榮溝通最重要的營業點",
		"en": "A branch where collaboration and mutual growth come first",
	}
	defaultSubheadline = domain.Localized{
		"ko": "쿠팡CLS 공식 인증 우수 빅 벤더 (주)준은로지스틱스",
		"zh": "Coupang CLS 官方認證 優秀大型供應商 (株)Juneun Logistics",
		"en": "Coupang CLS officially certified excellent big vendor, JE Logistics",
	}
)

// View is the content resolved for a single language
type View struct {
	Language    string               `json:"language"`
	LoadedFrom  domain.ContentSource `json:"loadedFrom"`
	CompanyName string               `json:"companyName"`
	Headline    string               `json:"headline"`
	Subheadline string               `json:"subheadline"`
	VideoURL    string               `json:"videoUrl"`
	Timeline    []TimelineEntry      `json:"timeline"`
	Stats       []Stat               `json:"stats"`
	FAQ         []domain.Question    `json:"faq"`
	DiffPoints  []domain.TitleDesc   `json:"diffPoints"`
}

type TimelineEntry struct {
	Year  string `json:"year"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

type Stat struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// Localize resolves every string of c for lang
func Localize(c *domain.Content, lang string) *View {
	v := &View{
		Language:    lang,
		LoadedFrom:  c.LoadedFrom,
		CompanyName: orDefault(c.Meta.CompanyName.Get(lang), defaultCompanyName),
		Headline:    orDefault(c.Meta.HomeHeadline.Get(lang), defaultHeadline.Get(lang)),
		Subheadline: orDefault(c.Meta.HomeSubheadline.Get(lang), defaultSubheadline.Get(lang)),
		VideoURL:    orDefault(c.Meta.VideoURL.Get(lang), defaultVideoURL),
	}

	for _, t := range c.Timeline {
		td := domain.Localize(t.Entries, lang)
		v.Timeline = append(v.Timeline, TimelineEntry{Year: t.Year, Title: td.Title, Desc: td.Desc})
	}
	for _, s := range c.Stats {
		v.Stats = append(v.Stats, Stat{Key: s.Key, Value: s.Value, Label: s.Labels.Get(lang)})
	}
	for _, q := range c.FAQContract {
		v.FAQ = append(v.FAQ, domain.Localize(q, lang))
	}
	for _, p := range c.DiffPoints {
		v.DiffPoints = append(v.DiffPoints, domain.Localize(p, lang))
	}

	return v
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
