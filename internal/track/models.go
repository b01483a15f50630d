package track

import "time"

// Direction distinguishes arrivals from departures relative to the station
type Direction string

const (
	DirectionArrival   Direction = "arrival"
	DirectionDeparture Direction = "departure"
)

// FlightStatus is the schedule provider's flight lifecycle state
type FlightStatus string

const (
	StatusScheduled FlightStatus = "scheduled"
	StatusActive    FlightStatus = "active"
	StatusLanded    FlightStatus = "landed"
	StatusCancelled FlightStatus = "cancelled"
	StatusIncident  FlightStatus = "incident"
	StatusDiverted  FlightStatus = "diverted"
	StatusUnknown   FlightStatus = "unknown"
)

// ParseFlightStatus maps a provider status string to the enum. Anything
// unrecognized becomes StatusUnknown rather than an error.
func ParseFlightStatus(s string) FlightStatus {
	switch s {
	case "scheduled":
		return StatusScheduled
	case "active":
		return StatusActive
	case "landed":
		return StatusLanded
	case "cancelled":
		return StatusCancelled
	case "incident":
		return StatusIncident
	case "diverted":
		return StatusDiverted
	default:
		return StatusUnknown
	}
}

// Class returns a renderer hint for the status badge
func (s FlightStatus) Class() string {
	switch s {
	case StatusLanded:
		return "success"
	case StatusActive:
		return "info"
	case StatusCancelled, StatusDiverted:
		return "error"
	default:
		return "neutral"
	}
}

// LivePosition is one normalized position report from the live feed.
// It lives for a single polling tick; only its trail outlasts it.
type LivePosition struct {
	ID             string    `json:"id"`       // aggregator-assigned transponder id (icao24)
	Callsign       string    `json:"callsign"` // trimmed, may be empty
	Airline        string    `json:"airline"`  // resolved from the callsign prefix
	Country        string    `json:"country"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	HeadingDeg     float64   `json:"heading_deg"`
	GroundSpeedKmh int       `json:"ground_speed_kmh"`
	AltitudeM      int       `json:"altitude_m"`
	OnGround       bool      `json:"on_ground"`
	ObservedAt     time.Time `json:"observed_at"`
}

// Identity returns the key used for trail storage and selection: callsign
// when present, transponder id otherwise.
func (p LivePosition) Identity() string {
	if p.Callsign != "" {
		return p.Callsign
	}
	return p.ID
}

// ScheduledFlight is one normalized entry of the flight-schedule snapshot
type ScheduledFlight struct {
	IATAFlightNumber     string       `json:"iata_flight_number"`
	ICAOFlightNumber     string       `json:"icao_flight_number"`
	AirlineName          string       `json:"airline_name"`
	Direction            Direction    `json:"direction"`
	ScheduledTime        string       `json:"scheduled_time"` // HH:MM local wall clock
	CounterpartAirport   string       `json:"counterpart_airport"`
	Terminal             string       `json:"terminal,omitempty"`
	Gate                 string       `json:"gate,omitempty"`
	AircraftRegistration string       `json:"aircraft_registration,omitempty"`
	Status               FlightStatus `json:"status"`
}

// TrailPoint is a single recorded (lat, lng) pair of an aircraft trail
type TrailPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TrackedAircraft is the published view model: a live position, the
// optionally matched schedule entry enriching it, and the current trail.
type TrackedAircraft struct {
	Identity string           `json:"identity"`
	Position LivePosition     `json:"position"`
	Flight   *ScheduledFlight `json:"flight,omitempty"`
	Trail    []TrailPoint     `json:"trail"`
}

// BoardFlight is a schedule entry as served to the flight board, carrying
// the selection highlight computed from the renderer's hovered identity.
type BoardFlight struct {
	ScheduledFlight
	Highlighted bool `json:"highlighted"`
}
