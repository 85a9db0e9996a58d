package easee

// Configuration is the technical configuration of a charger.
type Configuration struct {
	PhaseMode         int     `json:"phaseMode"`
	MaxChargerCurrent float64 `json:"maxChargerCurrent"`
}
