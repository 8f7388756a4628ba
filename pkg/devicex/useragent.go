package devicex

import (
	"strings"

	"github.com/mssola/useragent"
)

const (
	TypeDesktop = "desktop"
	TypeMobile  = "mobile"
	TypeTablet  = "tablet"
	TypeBot     = "bot"
)

// platform (as reported by useragent) -> vendor
var platformVendors = map[string]string{
	"iPhone":     "Apple",
	"iPad":       "Apple",
	"iPod":       "Apple",
	"Macintosh":  "Apple",
	"BlackBerry": "BlackBerry",
}

func parseUserAgent(raw string, fp *Fingerprint) {
	if strings.TrimSpace(raw) == "" {
		return
	}

	ua := useragent.New(raw)

	fp.BrowserName, fp.BrowserVersion = ua.Browser()
	os := ua.OSInfo()
	fp.OSName, fp.OSVersion = os.Name, os.Version

	platform := ua.Platform()
	fp.DeviceVendor = platformVendors[platform]
	if platform == "iPhone" || platform == "iPad" || platform == "iPod" {
		fp.DeviceModel = platform
	}

	switch {
	case ua.Bot():
		fp.DeviceType = TypeBot
	case platform == "iPad" || strings.Contains(raw, "Tablet"):
		fp.DeviceType = TypeTablet
	case ua.Mobile():
		fp.DeviceType = TypeMobile
	default:
		fp.DeviceType = TypeDesktop
	}

	if fp.DeviceVendor == "" && strings.Contains(raw, "Android") {
		fp.DeviceVendor = androidVendor(raw)
	}
}

// androidVendor picks a vendor out of the Android build string for the few
// manufacturers that brand it consistently.
func androidVendor(raw string) string {
	for prefix, vendor := range map[string]string{
		"SM-":    "Samsung",
		"Pixel":  "Google",
		"Redmi":  "Xiaomi",
		"HUAWEI": "Huawei",
	} {
		if strings.Contains(raw, prefix) {
			return vendor
		}
	}
	return ""
}
