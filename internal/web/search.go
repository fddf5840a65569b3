package web

import (
	"net/url"
	"strings"
)

// searchBase is opened when there is nothing to search for.
const searchBase = "https://www.google.com"

// searchURL builds a site-restricted web search for the user's last
// question: <searchBase>/search?q=site:<site>+<percent-encoded question>.
func searchURL(site, lastUser string) string {
	if strings.TrimSpace(lastUser) == "" {
		return searchBase
	}
	q := strings.ReplaceAll(url.QueryEscape(lastUser), "+", "%20")
	if site != "" {
		q = "site:" + site + "+" + q
	}
	return searchBase + "/search?q=" + q
}
