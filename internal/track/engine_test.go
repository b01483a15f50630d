package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asturlabs/ovdlive/internal/feed"
	"github.com/asturlabs/ovdlive/pkg/logger"
)

func testEngine() *Engine {
	return NewEngine(
		testNormalizer(),
		NewTieredMatcher(),
		NewTrailStore(10, 30, logger.Nop()),
		logger.Nop(),
	)
}

func scheduleWithIberiaArrival() *feed.RawSchedulePayload {
	return &feed.RawSchedulePayload{
		Flights: []feed.RawScheduleItem{
			{
				FlightIATA:     "IB478",
				FlightICAO:     "IBE478",
				AirlineName:    "Iberia",
				FlightStatus:   "active",
				DepAirportIATA: "MAD",
				DepAirportName: "Madrid Barajas",
				ArrAirportIATA: "OVD",
				ArrScheduled:   "2024-03-15T18:45:00+00:00",
			},
		},
	}
}

func liveWithIberia() *feed.RawLivePayload {
	return &feed.RawLivePayload{
		States: [][]any{
			stateVec("34510c", "IBE478", -5.9, 43.6, false, 150.0, 90.0, 3000.0),
		},
	}
}

func TestEngineCorrelatesLiveAndSchedule(t *testing.T) {
	e := testEngine()

	e.OnScheduleTick(scheduleWithIberiaArrival())
	e.OnLiveTick(liveWithIberia())

	view := e.GetView()
	require.Len(t, view, 1)

	ac := view[0]
	assert.Equal(t, "IBE478", ac.Identity)
	assert.Equal(t, "Iberia", ac.Position.Airline)
	require.NotNil(t, ac.Flight)
	assert.Equal(t, "IB478", ac.Flight.IATAFlightNumber)
	assert.Equal(t, "Madrid Barajas", ac.Flight.CounterpartAirport)
	require.Len(t, ac.Trail, 1)
	assert.Equal(t, TrailPoint{Lat: 43.6, Lng: -5.9}, ac.Trail[0])
}

func TestEngineUnmatchedAircraftStaysInView(t *testing.T) {
	e := testEngine()

	// No schedule snapshot at all: the aircraft is still tracked
	e.OnLiveTick(liveWithIberia())

	view := e.GetView()
	require.Len(t, view, 1)
	assert.Nil(t, view[0].Flight)
	assert.NotEmpty(t, view[0].Trail)
}

func TestEngineScheduleReplacement(t *testing.T) {
	e := testEngine()

	e.OnScheduleTick(scheduleWithIberiaArrival())
	e.OnLiveTick(liveWithIberia())
	require.NotNil(t, e.GetView()[0].Flight)

	// The next schedule poll no longer carries the flight; the following
	// live tick must reflect that
	e.OnScheduleTick(&feed.RawSchedulePayload{
		Flights: []feed.RawScheduleItem{
			{FlightIATA: "VY1562", FlightICAO: "VLG1562", DepAirportIATA: "OVD", ArrAirportIATA: "BCN"},
		},
	})
	e.OnLiveTick(liveWithIberia())

	view := e.GetView()
	require.Len(t, view, 1)
	assert.Nil(t, view[0].Flight, "stale schedule entries must not survive a replacement")
}

func TestEngineEmptySchedulePayloadClearsSnapshot(t *testing.T) {
	e := testEngine()

	e.OnScheduleTick(scheduleWithIberiaArrival())
	require.NotEmpty(t, e.GetSchedule(""))

	e.OnScheduleTick(&feed.RawSchedulePayload{})
	assert.Empty(t, e.GetSchedule(""), "a successful empty poll replaces the snapshot")
}

func TestEngineNilSchedulePayloadRetainsSnapshot(t *testing.T) {
	e := testEngine()

	e.OnScheduleTick(scheduleWithIberiaArrival())
	e.OnScheduleTick(nil)

	board := e.GetSchedule("")
	require.Len(t, board, 1)
	assert.Equal(t, "IB478", board[0].IATAFlightNumber)
}

func TestEngineNilLivePayloadRetainsView(t *testing.T) {
	e := testEngine()

	e.OnLiveTick(liveWithIberia())
	before := e.GetView()
	require.Len(t, before, 1)
	lastLive, _ := e.Status()

	e.OnLiveTick(nil)

	assert.Equal(t, before, e.GetView(), "a failed poll leaves the view unchanged")
	assert.NotEmpty(t, e.Trail("IBE478"))
	gotLive, _ := e.Status()
	assert.Equal(t, lastLive, gotLive, "a failed poll is not a successful tick")
}

func TestEngineEmptyLivePayloadPublishesEmptyView(t *testing.T) {
	e := testEngine()

	e.OnLiveTick(liveWithIberia())
	require.Len(t, e.GetView(), 1)

	// Successful poll, zero airborne aircraft
	e.OnLiveTick(&feed.RawLivePayload{})

	assert.Empty(t, e.GetView())
	assert.NotEmpty(t, e.Trail("IBE478"), "trails survive an empty sky for the next sighting")
}

func TestEngineScheduleDirectionFilter(t *testing.T) {
	e := testEngine()

	e.OnScheduleTick(&feed.RawSchedulePayload{
		Flights: []feed.RawScheduleItem{
			{FlightIATA: "IB478", DepAirportIATA: "MAD", ArrAirportIATA: "OVD"},
			{FlightIATA: "VY1562", DepAirportIATA: "OVD", ArrAirportIATA: "BCN"},
		},
	})

	arrivals := e.GetSchedule(DirectionArrival)
	require.Len(t, arrivals, 1)
	assert.Equal(t, "IB478", arrivals[0].IATAFlightNumber)

	departures := e.GetSchedule(DirectionDeparture)
	require.Len(t, departures, 1)
	assert.Equal(t, "VY1562", departures[0].IATAFlightNumber)

	assert.Len(t, e.GetSchedule(""), 2)
}

func TestEngineSelectionHighlightsBoard(t *testing.T) {
	e := testEngine()
	e.OnScheduleTick(scheduleWithIberiaArrival())

	e.Select("IBE478")
	assert.Equal(t, "IBE478", e.Selected())

	board := e.GetSchedule("")
	require.Len(t, board, 1)
	assert.True(t, board[0].Highlighted)

	e.Select("")
	board = e.GetSchedule("")
	assert.False(t, board[0].Highlighted, "clearing the selection clears highlights")
}

func TestEngineSubscribe(t *testing.T) {
	e := testEngine()

	ch, cancel := e.Subscribe()
	e.OnLiveTick(liveWithIberia())

	select {
	case view := <-ch:
		require.Len(t, view, 1)
		assert.Equal(t, "IBE478", view[0].Identity)
	case <-time.After(time.Second):
		t.Fatal("no view delivered to subscriber")
	}

	cancel()
	_, ok := <-ch
	assert.False(t, ok, "cancel closes the channel")

	// A tick after cancellation must not panic
	e.OnLiveTick(liveWithIberia())

	cancel() // idempotent
}

func TestEngineStatus(t *testing.T) {
	e := testEngine()

	lastLive, lastSchedule := e.Status()
	assert.True(t, lastLive.IsZero())
	assert.True(t, lastSchedule.IsZero())

	e.OnLiveTick(liveWithIberia())
	e.OnScheduleTick(scheduleWithIberiaArrival())

	lastLive, lastSchedule = e.Status()
	assert.False(t, lastLive.IsZero())
	assert.False(t, lastSchedule.IsZero())
}
