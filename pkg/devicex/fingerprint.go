// Package devicex describes the device a request came from: the caller IP,
// the parsed user agent and, when a resolver is configured, a coarse
// location.
package devicex

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

// Location is the best-effort geolocation of an IP.
type Location struct {
	City      string
	Country   string
	Latitude  float64
	Longitude float64
}

// Fingerprint is everything recorded about a device alongside a credential.
// Only IP and UserAgent take part in device recognition; the rest is
// descriptive.
type Fingerprint struct {
	IP        string
	UserAgent string

	BrowserName    string
	BrowserVersion string
	OSName         string
	OSVersion      string
	DeviceType     string // desktop, mobile, tablet, bot; empty when unknown
	DeviceVendor   string
	DeviceModel    string

	// Location is nil when the lookup failed or was skipped.
	Location *Location
}

// Name is a short human label such as "Firefox on Linux".
func (f Fingerprint) Name() string {
	switch {
	case f.BrowserName != "" && f.OSName != "":
		return f.BrowserName + " on " + f.OSName
	case f.BrowserName != "":
		return f.BrowserName
	case f.OSName != "":
		return f.OSName
	default:
		return "Unknown device"
	}
}

// Fingerprinter builds Fingerprints. The zero value parses user agents and
// skips geolocation.
type Fingerprinter struct {
	Geo GeoResolver
}

func NewFingerprinter(geo GeoResolver) *Fingerprinter {
	return &Fingerprinter{Geo: geo}
}

// Fingerprint never fails: parsing is best-effort and a failed location
// lookup leaves Location nil.
func (f *Fingerprinter) Fingerprint(ctx context.Context, ip, userAgent string) Fingerprint {
	ip = strings.TrimSpace(ip)

	fp := Fingerprint{IP: ip, UserAgent: userAgent}
	parseUserAgent(userAgent, &fp)

	if f.Geo == nil || ip == "" {
		return fp
	}

	loc, err := f.Geo.Resolve(ctx, ip)
	if err != nil {
		slogx.FromContext(ctx).Debug("geolocation lookup failed",
			slog.String("ip", ip),
			slog.Any("err", err),
		)
		return fp
	}
	fp.Location = loc
	return fp
}
