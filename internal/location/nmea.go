package location

import (
	"errors"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// errUnsupportedSentence marks well-formed sentences other than RMC and GGA.
var errUnsupportedSentence = errors.New("nmea: unsupported sentence")

// nmeaFix is the part of an RMC or GGA sentence the serial source uses.
type nmeaFix struct {
	Kind  string // nmea.TypeRMC or nmea.TypeGGA
	Fix   Fix
	Valid bool
	HDOP  float64 // GGA only; 0 when unknown
}

// decodeNMEA parses one line with go-nmea and keeps RMC and GGA sentences from
// any talker. Sentences must carry a valid checksum.
func decodeNMEA(line string) (nmeaFix, error) {
	sentence, err := nmea.Parse(strings.TrimSpace(line))
	if err != nil {
		return nmeaFix{}, err
	}

	switch m := sentence.(type) {
	case nmea.RMC:
		out := nmeaFix{Kind: nmea.TypeRMC, Valid: m.Validity == nmea.ValidRMC}
		out.Fix.Latitude, out.Fix.Longitude = m.Latitude, m.Longitude
		out.Fix.Timestamp = rmcTimestamp(m.Date, m.Time)
		return out, nil
	case nmea.GGA:
		return nmeaFix{
			Kind:  nmea.TypeGGA,
			Fix:   Fix{Latitude: m.Latitude, Longitude: m.Longitude},
			Valid: m.FixQuality != "" && m.FixQuality != nmea.Invalid,
			HDOP:  m.HDOP,
		}, nil
	default:
		return nmeaFix{Kind: sentence.DataType()}, errUnsupportedSentence
	}
}

// rmcTimestamp combines the RMC date and time. Two-digit years below 80 are
// in the 2000s. The zero time is returned when either part is missing.
func rmcTimestamp(d nmea.Date, t nmea.Time) time.Time {
	if !d.Valid || !t.Valid {
		return time.Time{}
	}
	year := 1900 + d.YY
	if d.YY < 80 {
		year = 2000 + d.YY
	}
	return time.Date(year, time.Month(d.MM), d.DD,
		t.Hour, t.Minute, t.Second, t.Millisecond*int(time.Millisecond), time.UTC)
}
