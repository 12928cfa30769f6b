package helpers

import (
	"context"
	"fmt"
	"strings"
	"time"

	mailtpl "github.com/oksasatya/go-rental-marketplace/pkg/mailer/templates"
)

const localLayout = "02 January 2006, 15:04 MST"

// LocalizeTimesIfPossible rewrites the human-readable times in job data to
// the timezone of the requester's IP, and fills Location when missing.
func LocalizeTimesIfPossible(ctx context.Context, resolver mailtpl.GeoResolver, data map[string]any) {
	if resolver == nil || data == nil {
		return
	}
	ipVal, ok := data["IP"]
	if !ok || fmt.Sprintf("%v", ipVal) == "" {
		return
	}
	g, err := resolver.Lookup(ctx, fmt.Sprintf("%v", ipVal))
	if err != nil {
		return
	}
	if loc, ok := data["Location"]; !ok || fmt.Sprintf("%v", loc) == "" {
		data["Location"] = mailtpl.FormatGeo(g)
	}
	if strings.TrimSpace(g.Timezone) == "" {
		return
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return
	}
	if t, ok := parseTimeAny(data["ExpiresAt"]); ok {
		data["ExpiresAtText"] = t.In(loc).Format(localLayout)
	}
	if t, ok := parseTimeAny(data["TimeAt"]); ok {
		data["Time"] = t.In(loc).Format(localLayout)
	}
}

func parseTimeAny(v any) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	if t, ok := v.(time.Time); ok {
		return t, !t.IsZero()
	}
	s := fmt.Sprintf("%v", v)
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05 -0700 MST",
		"2006-01-02 15:04:05 -0700",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil && !t.IsZero() {
			return t, true
		}
	}
	return time.Time{}, false
}
