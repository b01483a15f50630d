package track

import (
	"math"
	"strings"
	"time"

	"github.com/asturlabs/ovdlive/internal/config"
	"github.com/asturlabs/ovdlive/internal/feed"
	"github.com/asturlabs/ovdlive/pkg/logger"
)

// OpenSky state vector indices (positional array per aircraft)
const (
	stateIdxICAO24      = 0
	stateIdxCallsign    = 1
	stateIdxCountry     = 2
	stateIdxLongitude   = 5
	stateIdxLatitude    = 6
	stateIdxOnGround    = 8
	stateIdxVelocity    = 9  // m/s
	stateIdxTrueTrack   = 10 // degrees
	stateIdxGeoAltitude = 13 // metres

	minStateFields = 14
)

// Normalizer converts raw feed payloads into the canonical record types.
// It is a pure transform: a nil or malformed payload yields an empty
// sequence, never an error.
type Normalizer struct {
	stationIATA  string
	airlines     map[string]string
	unknownLabel string
	logger       *logger.Logger
}

// NewNormalizer creates a normalizer for the given station and airline
// prefix table.
func NewNormalizer(station config.StationConfig, airlines config.AirlinesConfig, log *logger.Logger) *Normalizer {
	prefixes := make(map[string]string, len(airlines.Prefixes))
	for code, name := range airlines.Prefixes {
		prefixes[strings.ToUpper(code)] = name
	}
	return &Normalizer{
		stationIATA:  station.AirportIATA,
		airlines:     prefixes,
		unknownLabel: airlines.UnknownLabel,
		logger:       log.Named("normalizer"),
	}
}

// NormalizeLivePositions converts a raw live payload into LivePosition
// records. On-ground aircraft and records without coordinates are dropped
// here; they never reach the view model.
func (n *Normalizer) NormalizeLivePositions(raw *feed.RawLivePayload) []LivePosition {
	if raw == nil || len(raw.States) == 0 {
		return []LivePosition{}
	}

	observedAt := time.Now().UTC()
	if raw.Time > 0 {
		observedAt = time.Unix(raw.Time, 0).UTC()
	}

	positions := make([]LivePosition, 0, len(raw.States))
	for _, state := range raw.States {
		if len(state) < minStateFields {
			continue
		}

		lat, latOK := floatField(state[stateIdxLatitude])
		lng, lngOK := floatField(state[stateIdxLongitude])
		if !latOK || !lngOK {
			// Position-less state vectors are useless to the map
			continue
		}

		if onGround, _ := boolField(state[stateIdxOnGround]); onGround {
			continue
		}

		callsign := strings.TrimSpace(stringField(state[stateIdxCallsign]))
		velocity, _ := floatField(state[stateIdxVelocity])
		heading, _ := floatField(state[stateIdxTrueTrack])
		altitude, _ := floatField(state[stateIdxGeoAltitude])

		positions = append(positions, LivePosition{
			ID:             stringField(state[stateIdxICAO24]),
			Callsign:       callsign,
			Airline:        n.ResolveAirline(callsign),
			Country:        stringField(state[stateIdxCountry]),
			Lat:            lat,
			Lng:            lng,
			HeadingDeg:     heading,
			GroundSpeedKmh: int(math.Round(velocity * 3.6)),
			AltitudeM:      int(math.Round(altitude)),
			OnGround:       false,
			ObservedAt:     observedAt,
		})
	}
	return positions
}

// NormalizeSchedule converts a raw schedule payload into ScheduledFlight
// records. Missing optional fields (terminal, gate, registration) stay
// empty rather than being defaulted.
func (n *Normalizer) NormalizeSchedule(raw *feed.RawSchedulePayload) []ScheduledFlight {
	if raw == nil || len(raw.Flights) == 0 {
		return []ScheduledFlight{}
	}

	flights := make([]ScheduledFlight, 0, len(raw.Flights))
	for _, f := range raw.Flights {
		isArrival := f.ArrAirportIATA == n.stationIATA

		sf := ScheduledFlight{
			IATAFlightNumber: f.FlightIATA,
			ICAOFlightNumber: f.FlightICAO,
			AirlineName:      f.AirlineName,
			Status:           ParseFlightStatus(f.FlightStatus),
		}

		// The station-side leg supplies display time, terminal and gate;
		// the opposite leg names the counterpart airport.
		if isArrival {
			sf.Direction = DirectionArrival
			sf.ScheduledTime = clockFromISO(f.ArrScheduled)
			sf.CounterpartAirport = f.DepAirportName
			sf.Terminal = f.ArrTerminal
			sf.Gate = f.ArrGate
		} else {
			sf.Direction = DirectionDeparture
			sf.ScheduledTime = clockFromISO(f.DepScheduled)
			sf.CounterpartAirport = f.ArrAirportName
			sf.Terminal = f.DepTerminal
			sf.Gate = f.DepGate
		}
		sf.AircraftRegistration = f.Registration

		flights = append(flights, sf)
	}
	return flights
}

// ResolveAirline maps the 3-letter callsign prefix to an operator name
// through the configured table; misses resolve to the unknown label.
func (n *Normalizer) ResolveAirline(callsign string) string {
	if len(callsign) < 3 {
		return n.unknownLabel
	}
	if name, ok := n.airlines[strings.ToUpper(callsign[:3])]; ok {
		return name
	}
	return n.unknownLabel
}

// clockFromISO truncates an ISO-8601 local timestamp to HH:MM. The
// provider reports scheduled times in the airport's wall clock, so the
// substring is taken verbatim rather than parsed and re-zoned.
func clockFromISO(ts string) string {
	if len(ts) < 16 {
		return ""
	}
	return ts[11:16]
}

func stringField(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func floatField(v any) (float64, bool) {
	if f, ok := v.(float64); ok {
		return f, true
	}
	return 0, false
}

func boolField(v any) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	return false, false
}
