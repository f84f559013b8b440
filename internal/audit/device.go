package audit

import (
	"fmt"

	"github.com/mssola/useragent"
)

// DeviceSummary reduces a raw User-Agent header to a short, low-cardinality
// description suitable for audit records.
func DeviceSummary(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if ua.Bot() {
		return fmt.Sprintf("bot/%s", name)
	}
	platform := ua.OS()
	if platform == "" {
		platform = ua.Platform()
	}
	if name == "" {
		return platform
	}
	return fmt.Sprintf("%s %s on %s", name, version, platform)
}
