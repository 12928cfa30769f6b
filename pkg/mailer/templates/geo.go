package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

var ErrNotRoutable = errors.New("ip is not publicly routable")

// Geo is an IP lookup result
type Geo struct {
	City     string
	Region   string // state/province
	Country  string
	Timezone string
}

type GeoResolver interface {
	Lookup(ctx context.Context, ip string) (Geo, error)
}

func FormatGeo(g Geo) string {
	var parts []string
	for _, s := range []string{g.City, g.Region, g.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// IPAPIResolver implements GeoResolver using ip-api.com
type IPAPIResolver struct {
	Client  *http.Client
	BaseURL string
}

func (r IPAPIResolver) Lookup(ctx context.Context, ip string) (Geo, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return Geo{}, fmt.Errorf("invalid ip %q", ip)
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return Geo{}, ErrNotRoutable
	}
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	base := r.BaseURL
	if base == "" {
		base = "http://ip-api.com"
	}

	url := fmt.Sprintf("%s/json/%s?fields=status,message,country,regionName,city,timezone", base, parsed.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Geo{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Geo{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Status     string `json:"status"`
		Message    string `json:"message"`
		Country    string `json:"country"`
		RegionName string `json:"regionName"`
		City       string `json:"city"`
		Timezone   string `json:"timezone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Geo{}, err
	}
	if !strings.EqualFold(body.Status, "success") {
		return Geo{}, fmt.Errorf("geo lookup failed: %s", body.Message)
	}
	return Geo{City: body.City, Region: body.RegionName, Country: body.Country, Timezone: body.Timezone}, nil
}
