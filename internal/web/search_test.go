package web

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchURL(t *testing.T) {
	cases := []struct {
		name, site, last, want string
	}{
		{"NoUserTurn", "motherandsriaurobindo.in", "", "https://www.google.com"},
		{"Whitespace", "motherandsriaurobindo.in", "  ", "https://www.google.com"},
		{"Encoded", "motherandsriaurobindo.in", "savitri & the mother/yoga",
			"https://www.google.com/search?q=site:motherandsriaurobindo.in+savitri%20%26%20the%20mother%2Fyoga"},
		{"NoSite", "", "karma", "https://www.google.com/search?q=karma"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, searchURL(tc.site, tc.last))
		})
	}
}

func TestRenderMarkdown(t *testing.T) {
	got := string(renderMarkdown("# Peace\n\n*calm* mind\n<script>alert(1)</script>"))
	assert.Contains(t, got, "<h1>Peace</h1>")
	assert.Contains(t, got, "<em>calm</em>")
	assert.False(t, strings.Contains(got, "<script>"), got)
}
