package geo

import "strings"

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// DefaultFallbacks covers cities whose lookups must survive a geocoder outage.
var DefaultFallbacks = map[string]Coordinates{
	"Kathmandu, Nepal": {Latitude: 27.7172, Longitude: 85.3240},
	"Kathmandu":        {Latitude: 27.7172, Longitude: 85.3240},
	"Lalitpur, Nepal":  {Latitude: 27.6667, Longitude: 85.3333}, // Patan
	"Lalitpur":         {Latitude: 27.6667, Longitude: 85.3333},
}

// lookupFallback tries an exact match, then the trimmed place name.
func lookupFallback(table map[string]Coordinates, place string) (Coordinates, bool) {
	if c, ok := table[place]; ok {
		return c, true
	}
	c, ok := table[strings.TrimSpace(place)]
	return c, ok
}
