// Package simulation implements the per-connection traffic demo: one car driving
// north along 15th St in Philadelphia toward a timed traffic light.
package simulation

import (
	"math"
	"time"

	"github.com/samirrijal/citygrid/internal/core/domain"
)

const (
	// VehicleID and LightID key the single car and light in the snapshot.
	VehicleID = "car1"
	LightID   = "light1"

	// VehicleColor is the car's display color.
	VehicleColor = "#3b82f6"

	// Step is the latitude the car advances per Tick, independent of real time.
	Step = 0.00005

	// StopBand is how close (in degrees latitude) the car must be to the light
	// for a red light to hold it.
	StopBand = 0.0001

	// LightHalfPeriod is how long the light stays on one color.
	LightHalfPeriod = 15 * time.Second
)

// Fixed waypoints.
var (
	StartPoint = domain.Point{Lat: 39.9515, Lng: -75.1646}
	EndPoint   = domain.Point{Lat: 39.9545, Lng: -75.1646}
	LightPoint = domain.Point{Lat: 39.9535, Lng: -75.1646}
)

// Engine owns one simulated world. It is not safe for concurrent use; each
// stream connection gets its own.
type Engine struct {
	clock   Clock
	started time.Time
	state   domain.SimulationState
}

// New creates an engine whose light phase is measured from clock.Now().
func New(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{
		clock:   clock,
		started: clock.Now(),
		state: domain.SimulationState{
			Vehicles: map[string]domain.Vehicle{
				VehicleID: {
					Lat:     StartPoint.Lat,
					Lng:     StartPoint.Lng,
					Color:   VehicleColor,
					Bearing: 0,
				},
			},
			TrafficLights: map[string]domain.TrafficLight{
				LightID: {
					Lat:    LightPoint.Lat,
					Lng:    LightPoint.Lng,
					Status: domain.LightRed,
				},
			},
		},
	}
}

// NewDefault creates an engine on the system clock. It matches the
// factory signature the stream handler expects.
func NewDefault() *Engine {
	return New(SystemClock{})
}

// LightStatus returns the light color after elapsed time: red during even
// 15s windows, green during odd ones.
func LightStatus(elapsed time.Duration) string {
	window := int64(math.Floor(elapsed.Seconds() / LightHalfPeriod.Seconds()))
	if window%2 == 0 {
		return domain.LightRed
	}
	return domain.LightGreen
}

// Tick advances the world by one step.
func (e *Engine) Tick() {
	light := e.state.TrafficLights[LightID]
	light.Status = LightStatus(e.clock.Now().Sub(e.started))
	e.state.TrafficLights[LightID] = light

	car := e.state.Vehicles[VehicleID]
	if !holdsAtLight(car.Lat, light.Status) {
		car.Lat += Step
	}
	if car.Lat > EndPoint.Lat {
		car.Lat = StartPoint.Lat
	}
	e.state.Vehicles[VehicleID] = car
}

// holdsAtLight reports whether a car at lat must wait: red, still short of
// the light and inside the stop band.
func holdsAtLight(lat float64, status string) bool {
	return status == domain.LightRed &&
		lat < LightPoint.Lat &&
		math.Abs(lat-LightPoint.Lat) < StopBand
}

// State returns a copy of the current world.
func (e *Engine) State() domain.SimulationState {
	out := domain.SimulationState{
		Vehicles:      make(map[string]domain.Vehicle, len(e.state.Vehicles)),
		TrafficLights: make(map[string]domain.TrafficLight, len(e.state.TrafficLights)),
	}
	for k, v := range e.state.Vehicles {
		out.Vehicles[k] = v
	}
	for k, l := range e.state.TrafficLights {
		out.TrafficLights[k] = l
	}
	return out
}

// Elapsed returns the time since the engine was created.
func (e *Engine) Elapsed() time.Duration {
	return e.clock.Now().Sub(e.started)
}

// placeVehicle moves the car; used by tests to set up stop-band scenarios.
func (e *Engine) placeVehicle(lat float64) {
	car := e.state.Vehicles[VehicleID]
	car.Lat = lat
	e.state.Vehicles[VehicleID] = car
}
