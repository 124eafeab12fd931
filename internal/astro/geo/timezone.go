package geo

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/ringsaturn/tzf"
)

// ZoneLocator maps a point to an IANA zone name; empty when unknown.
type ZoneLocator interface {
	ZoneName(lat, lon float64) string
}

// TZFLocator finds zones from the tzf polygon data embedded in the binary.
type TZFLocator struct {
	finder tzf.F
}

func NewTZFLocator() (*TZFLocator, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("load timezone finder: %w", err)
	}
	return &TZFLocator{finder: finder}, nil
}

func (l *TZFLocator) ZoneName(lat, lon float64) string {
	return l.finder.GetTimezoneName(lon, lat)
}

// HistoricalOffset returns the UTC offset in hours that zone applied at the
// given wall-clock time. Only the wall-clock fields of wall are used, so DST
// and historical rule changes are honoured for that exact date.
func HistoricalOffset(zone string, wall time.Time) (float64, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return 0, fmt.Errorf("load zone %q: %w", zone, err)
	}
	local := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), 0, loc)
	_, seconds := local.Zone()
	return float64(seconds) / 3600.0, nil
}
