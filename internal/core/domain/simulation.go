package domain

// Light statuses.
const (
	LightRed   = "red"
	LightGreen = "green"
)

// Point is a geographic coordinate (WGS 84).
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Vehicle is a simulated vehicle's live position and display attributes.
type Vehicle struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Color   string  `json:"color"`
	Bearing int     `json:"bearing"` // degrees, 0 = north
}

// TrafficLight is a fixed light whose status is derived from elapsed time.
type TrafficLight struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Status string  `json:"status"`
}

// SimulationState is the full snapshot pushed to stream clients.
type SimulationState struct {
	Vehicles      map[string]Vehicle      `json:"vehicles"`
	TrafficLights map[string]TrafficLight `json:"trafficLights"`
}
