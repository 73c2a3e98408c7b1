package build

import "strings"

var (
	// Version is stamped at link time via -ldflags.
	Version = "dev"
	AppName = "Actd"
	Slug    = ""
)

func init() {
	if Slug == "" {
		Slug = strings.ToLower(AppName)
	}
}
