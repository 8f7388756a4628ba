package devicex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GeoResolver maps an IP to a coarse location. A nil location with a nil
// error means the IP is not worth looking up.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) (*Location, error)
}

// NopResolver never resolves anything.
type NopResolver struct{}

func (NopResolver) Resolve(context.Context, string) (*Location, error) { return nil, nil }

var ErrGeoLookup = errors.New("devicex: geolocation lookup failed")

// HTTPGeoResolver queries an ip-api.com compatible endpoint:
// GET {Endpoint}/{ip}?fields=status,message,city,country,lat,lon
type HTTPGeoResolver struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPGeoResolver(endpoint string, timeout time.Duration) *HTTPGeoResolver {
	return &HTTPGeoResolver{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Client:   &http.Client{Timeout: timeout},
	}
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (g *HTTPGeoResolver) Resolve(ctx context.Context, ip string) (*Location, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return nil, fmt.Errorf("%w: invalid ip %q", ErrGeoLookup, ip)
	}
	if !publicIP(addr) {
		return nil, nil
	}

	u := g.Endpoint + "/" + url.PathEscape(addr.String()) + "?fields=status,message,city,country,lat,lon"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeoLookup, err)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeoLookup, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrGeoLookup, resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrGeoLookup, err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrGeoLookup, body.Message)
	}

	return &Location{
		City:      body.City,
		Country:   body.Country,
		Latitude:  body.Lat,
		Longitude: body.Lon,
	}, nil
}

func publicIP(ip net.IP) bool {
	return !(ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsMulticast())
}
