package offline

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/varoOP/kioskcache/internal/domain"
)

func TestClassify(t *testing.T) {
	origin, _ := url.Parse("https://kiosk.test/")

	tests := []struct {
		name string
		url  string
		want domain.RequestClass
	}{
		{name: "apps script endpoint", url: "https://script.google.com/macros/s/abc/exec", want: domain.ClassContentEndpoint},
		{name: "apps script redirect target", url: "https://script.googleusercontent.com/macros/echo?x=1", want: domain.ClassContentEndpoint},
		{name: "content host is case insensitive", url: "https://Script.Google.Com/x", want: domain.ClassContentEndpoint},
		{name: "same origin asset", url: "https://kiosk.test/app.js", want: domain.ClassSameOrigin},
		{name: "same origin default port", url: "https://kiosk.test:443/styles.css", want: domain.ClassSameOrigin},
		{name: "other port", url: "https://kiosk.test:8443/app.js", want: domain.ClassCrossOrigin},
		{name: "other scheme", url: "http://kiosk.test/app.js", want: domain.ClassCrossOrigin},
		{name: "cdn", url: "https://fonts.googleapis.com/css", want: domain.ClassCrossOrigin},
		{name: "suffix lookalike", url: "https://evilgoogleusercontent.com/x", want: domain.ClassCrossOrigin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.url)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, classify(u, origin, domain.DefaultContentHosts))
		})
	}
}

func TestClassify_ContentHostWinsOverSameOrigin(t *testing.T) {
	origin, _ := url.Parse("https://script.google.com/")
	u, _ := url.Parse("https://script.google.com/macros/s/abc/exec")

	assert.Equal(t, domain.ClassContentEndpoint, classify(u, origin, domain.DefaultContentHosts))
}

func TestSameOrigin(t *testing.T) {
	origin, _ := url.Parse("https://kiosk.test/")

	tests := []struct {
		raw  string
		want bool
	}{
		{raw: "https://kiosk.test/app.js", want: true},
		{raw: "https://kiosk.test:443/app.js", want: true},
		{raw: "HTTPS://Kiosk.Test/app.js", want: true},
		{raw: "https://kiosk.test:8443/app.js", want: false},
		{raw: "http://kiosk.test/app.js", want: false},
		{raw: "https://cdn.kiosk.test/app.js", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, _ := url.Parse(tt.raw)
			assert.Equal(t, tt.want, SameOrigin(u, origin))
		})
	}
}
