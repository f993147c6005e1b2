package core

import "strings"

// DefaultDateFormat is the MMEX pattern used when none is configured.
const DefaultDateFormat = "%Y-%m-%d"

var mmexLayout = strings.NewReplacer(
	"%d", "02",
	"%m", "01",
	"%Y", "2006",
	"%y", "06",
)

// GoLayout converts an MMEX date pattern such as "%d/%m/%Y" into a time
// layout. Unknown directives are left as literal text.
func GoLayout(pattern string) string {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultDateFormat
	}
	return mmexLayout.Replace(pattern)
}
