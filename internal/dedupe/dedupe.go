// Package dedupe collapses offers that come from the same merchant.
// Sources return highest-relevance results first, so keeping the
// first-seen offer per merchant approximates keeping the best one.
package dedupe

import (
	"net/url"
	"strings"

	"github.com/IvndxDB/upc-backend/internal/model"
)

// merchantAliases maps merchant key fragments to a canonical merchant
// name, collapsing regional sub-brands. Kept as an ordered data table so
// new aliases never touch pipeline logic and matching stays
// deterministic.
var merchantAliases = []struct {
	fragment  string
	canonical string
}{
	{"mercadolibre", "mercadolibre"},
	{"mercado libre", "mercadolibre"},
	{"amazon", "amazon"},
	{"bodega aurrera", "walmart"},
	{"sam's club", "walmart"},
	{"sams club", "walmart"},
	{"walmart", "walmart"},
	{"liverpool", "liverpool"},
	{"chedraui", "chedraui"},
	{"soriana", "soriana"},
	{"coppel", "coppel"},
	{"costco", "costco"},
	{"farmacias guadalajara", "farmacias guadalajara"},
	{"farmacias del ahorro", "farmacias del ahorro"},
	{"farmacia san pablo", "farmacia san pablo"},
}

// multiPartTLDs are country suffixes where the registrable domain is one
// label deeper than usual (tienda.amazon.com.mx -> amazon.com.mx).
var multiPartTLDs = map[string]struct{}{
	"com.mx": {}, "com.ar": {}, "com.br": {}, "com.co": {},
	"co.uk": {}, "com.au": {},
}

// Dedupe returns a new slice keeping the first-seen offer per merchant
// key, preserving input order. Offers with no derivable key are kept
// as-is. The input slice is never mutated.
func Dedupe(offers []model.Offer) []model.Offer {
	out := make([]model.Offer, 0, len(offers))
	seen := make(map[string]struct{}, len(offers))

	for _, o := range offers {
		key := MerchantKey(o)
		if key == "" {
			out = append(out, o)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, o)
	}
	return out
}

// MerchantKey derives the normalized merchant identity of an offer:
// the lowercased seller name when present, otherwise the registrable
// domain of the link. Known aliases collapse to their canonical parent.
func MerchantKey(o model.Offer) string {
	if s := strings.ToLower(strings.TrimSpace(o.Seller)); s != "" {
		return canonicalize(s)
	}
	if d := registrableDomain(o.Link); d != "" {
		return canonicalize(d)
	}
	return ""
}

// canonicalize maps a raw key onto its canonical merchant when a known
// alias fragment appears in it.
func canonicalize(key string) string {
	for _, a := range merchantAliases {
		if strings.Contains(key, a.fragment) {
			return a.canonical
		}
	}
	return key
}

// registrableDomain extracts the lowercased registrable domain from a
// URL ("https://www.tienda.amazon.com.mx/p/1" -> "amazon.com.mx").
// Returns "" for unparseable links.
func registrableDomain(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}

	take := 2
	suffix := strings.Join(labels[len(labels)-2:], ".")
	if _, ok := multiPartTLDs[suffix]; ok && len(labels) >= 3 {
		take = 3
	}
	return strings.Join(labels[len(labels)-take:], ".")
}
