package service

import (
	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/pkg/devicex"
)

// DeviceFromFingerprint converts a fingerprint into the device record stored
// with a credential. name overrides the derived label when not empty.
func DeviceFromFingerprint(fp devicex.Fingerprint, name string) domain.Device {
	if name == "" {
		name = fp.Name()
	}

	d := domain.Device{
		Name:           name,
		IP:             fp.IP,
		UserAgent:      fp.UserAgent,
		BrowserName:    fp.BrowserName,
		BrowserVersion: fp.BrowserVersion,
		OSName:         fp.OSName,
		OSVersion:      fp.OSVersion,
		Type:           fp.DeviceType,
		Vendor:         fp.DeviceVendor,
		Model:          fp.DeviceModel,
	}
	if loc := fp.Location; loc != nil {
		lat, lon := loc.Latitude, loc.Longitude
		d.City, d.Country = loc.City, loc.Country
		d.Latitude, d.Longitude = &lat, &lon
	}
	return d
}
