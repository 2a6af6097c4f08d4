// Package enrichment adds optional, best-effort structured fields to
// parsed events. Today the only enricher is GeoIP, applied to nginx
// events' remote_addr.
package enrichment

import (
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/pterm/pterm"
)

// GeoIPEnricher looks up country and city for an IP address using a
// MaxMind City database. It never blocks ingestion on a lookup failure:
// Enrich only logs and leaves fields unset.
type GeoIPEnricher struct {
	city   *geoip2.Reader
	logger *pterm.Logger
}

// NewGeoIPEnricher opens the City database at path. The database stays
// memory-mapped for the life of the process; Close releases it.
func NewGeoIPEnricher(cityDBPath string, logger *pterm.Logger) (*GeoIPEnricher, error) {
	reader, err := geoip2.Open(cityDBPath)
	if err != nil {
		return nil, err
	}
	return &GeoIPEnricher{city: reader, logger: logger}, nil
}

func (e *GeoIPEnricher) Close() error {
	return e.city.Close()
}

// Enrich sets fields["geo_country"] and fields["geo_city"] from
// fields["remote_addr"] when present and resolvable. It is a no-op on
// any field shape it doesn't recognize, which is how it tolerates
// running across sourcetypes other than nginx.
func (e *GeoIPEnricher) Enrich(fields map[string]any) {
	raw, ok := fields["remote_addr"]
	if !ok {
		return
	}
	addrStr, ok := raw.(string)
	if !ok {
		return
	}

	ip := net.ParseIP(addrStr)
	if ip == nil {
		return
	}

	record, err := e.city.City(ip)
	if err != nil {
		e.logger.Trace("GeoIP lookup failed", e.logger.Args("ip", addrStr, "error", err))
		return
	}

	if name := record.Country.Names["en"]; name != "" {
		fields["geo_country"] = name
	}
	if name := record.City.Names["en"]; name != "" {
		fields["geo_city"] = name
	}
}
