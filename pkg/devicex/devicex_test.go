package devicex_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/claimdesk/pkg/devicex"
	"github.com/stretchr/testify/require"
)

const (
	uaFirefoxLinux = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
	uaSafariIPhone = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"
	uaGooglebot    = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestFingerprint_UserAgent(t *testing.T) {
	fp := devicex.NewFingerprinter(nil)

	t.Run("desktop", func(t *testing.T) {
		got := fp.Fingerprint(context.Background(), "10.0.0.1", uaFirefoxLinux)
		require.Equal(t, "10.0.0.1", got.IP)
		require.Equal(t, uaFirefoxLinux, got.UserAgent)
		require.Equal(t, "Firefox", got.BrowserName)
		require.Equal(t, "128.0", got.BrowserVersion)
		require.Equal(t, devicex.TypeDesktop, got.DeviceType)
		require.Equal(t, "Firefox on "+got.OSName, got.Name())
		require.Nil(t, got.Location)
	})

	t.Run("iphone", func(t *testing.T) {
		got := fp.Fingerprint(context.Background(), "10.0.0.1", uaSafariIPhone)
		require.Equal(t, "Safari", got.BrowserName)
		require.Equal(t, devicex.TypeMobile, got.DeviceType)
		require.Equal(t, "Apple", got.DeviceVendor)
		require.Equal(t, "iPhone", got.DeviceModel)
	})

	t.Run("bot", func(t *testing.T) {
		got := fp.Fingerprint(context.Background(), "10.0.0.1", uaGooglebot)
		require.Equal(t, devicex.TypeBot, got.DeviceType)
	})

	t.Run("empty", func(t *testing.T) {
		got := fp.Fingerprint(context.Background(), " 10.0.0.1 ", "")
		require.Equal(t, "10.0.0.1", got.IP)
		require.Empty(t, got.BrowserName)
		require.Empty(t, got.DeviceType)
		require.Equal(t, "Unknown device", got.Name())
	})
}

type stubResolver struct {
	loc *devicex.Location
	err error
}

func (s stubResolver) Resolve(context.Context, string) (*devicex.Location, error) { return s.loc, s.err }

func TestFingerprint_GeoFailureDegrades(t *testing.T) {
	fp := devicex.NewFingerprinter(stubResolver{err: errors.New("boom")})

	got := fp.Fingerprint(context.Background(), "8.8.8.8", uaFirefoxLinux)
	require.Nil(t, got.Location)
	require.Equal(t, "Firefox", got.BrowserName)
}

func TestFingerprint_GeoSuccess(t *testing.T) {
	fp := devicex.NewFingerprinter(stubResolver{loc: &devicex.Location{City: "Sydney", Country: "Australia"}})

	got := fp.Fingerprint(context.Background(), "1.1.1.1", uaFirefoxLinux)
	require.NotNil(t, got.Location)
	require.Equal(t, "Sydney", got.Location.City)
}

func TestHTTPGeoResolver(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		switch strings.TrimPrefix(r.URL.Path, "/json/") {
		case "1.1.1.1":
			_, _ = w.Write([]byte(`{"status":"success","city":"Sydney","country":"Australia","lat":-33.87,"lon":151.21}`))
		case "9.9.9.9":
			_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	g := devicex.NewHTTPGeoResolver(srv.URL+"/json/", time.Second)
	ctx := context.Background()

	loc, err := g.Resolve(ctx, "1.1.1.1")
	require.NoError(t, err)
	require.Equal(t, &devicex.Location{City: "Sydney", Country: "Australia", Latitude: -33.87, Longitude: 151.21}, loc)

	_, err = g.Resolve(ctx, "9.9.9.9")
	require.ErrorIs(t, err, devicex.ErrGeoLookup)

	_, err = g.Resolve(ctx, "8.8.4.4")
	require.ErrorIs(t, err, devicex.ErrGeoLookup)

	_, err = g.Resolve(ctx, "not-an-ip")
	require.ErrorIs(t, err, devicex.ErrGeoLookup)

	before := hits
	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "::1", "fe80::1"} {
		loc, err := g.Resolve(ctx, ip)
		require.NoError(t, err)
		require.Nil(t, loc)
	}
	require.Equal(t, before, hits, "private addresses must not be looked up")
}
