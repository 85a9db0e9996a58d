package easee

import (
	"encoding/json"
	"time"
)

// OpMode is the operating mode a charger reports.
type OpMode int

const (
	OpModeUnknown       OpMode = -1
	OpModeOffline       OpMode = 0
	OpModeDisconnected  OpMode = 1
	OpModeAwaitingStart OpMode = 2
	OpModeCharging      OpMode = 3
	OpModeCompleted     OpMode = 4
	OpModeError         OpMode = 5
	OpModeReadyToCharge OpMode = 6
)

var opModeNames = map[OpMode]string{
	OpModeOffline:       "offline",
	OpModeDisconnected:  "disconnected",
	OpModeAwaitingStart: "awaiting_start",
	OpModeCharging:      "charging",
	OpModeCompleted:     "completed",
	OpModeError:         "error",
	OpModeReadyToCharge: "ready_to_charge",
}

// ParseOpMode never fails: values introduced by the vendor later map to
// OpModeUnknown.
func ParseOpMode(v int) OpMode {
	if _, ok := opModeNames[OpMode(v)]; ok {
		return OpMode(v)
	}
	return OpModeUnknown
}

func (m OpMode) String() string {
	if name, ok := opModeNames[m]; ok {
		return name
	}
	return "unknown"
}

func (m OpMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

type StateData struct {
	ChargerOpMode         *int    `json:"chargerOpMode"`
	LifetimeEnergy        float64 `json:"lifetimeEnergy"`
	SessionEnergy         float64 `json:"sessionEnergy"`
	TotalPower            float64 `json:"totalPower"`
	DynamicChargerCurrent float64 `json:"dynamicChargerCurrent"`
	IsOnline              bool    `json:"isOnline"`
	LatestPulse           string  `json:"latestPulse"`
}

// State is the decoded state of a charger at the time it was received.
type State struct {
	data       StateData
	receivedAt time.Time
}

type MeterReading struct {
	ReadingKWh float64   `json:"reading_kwh"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewState(data StateData, receivedAt time.Time) *State {
	return &State{data: data, receivedAt: receivedAt}
}

func ParseState(body []byte, receivedAt time.Time) (*State, error) {
	var data StateData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	return NewState(data, receivedAt), nil
}

func (s *State) OpMode() OpMode {
	if s.data.ChargerOpMode == nil {
		return OpModeUnknown
	}
	return ParseOpMode(*s.data.ChargerOpMode)
}

// Charging is true for OpModeCharging only, not while awaiting start.
func (s *State) Charging() bool {
	return s.OpMode() == OpModeCharging
}

func (s *State) Disconnected() bool {
	return s.OpMode() == OpModeDisconnected
}

func (s *State) Online() bool {
	return s.data.IsOnline
}

func (s *State) SessionEnergy() float64 {
	return s.data.SessionEnergy
}

func (s *State) TotalPower() float64 {
	return s.data.TotalPower
}

func (s *State) DynamicChargerCurrent() float64 {
	return s.data.DynamicChargerCurrent
}

// MeterReading uses the charger's latest pulse as timestamp and falls back to
// the time the state was received.
func (s *State) MeterReading() MeterReading {
	ts := s.receivedAt
	if s.data.LatestPulse != "" {
		if pulse, err := time.Parse(time.RFC3339Nano, s.data.LatestPulse); err == nil {
			ts = pulse.UTC()
		}
	}
	return MeterReading{
		ReadingKWh: s.data.LifetimeEnergy,
		Timestamp:  ts,
	}
}

func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		OpMode       OpMode       `json:"op_mode"`
		Charging     bool         `json:"charging"`
		Disconnected bool         `json:"disconnected"`
		Online       bool         `json:"online"`
		TotalPower   float64      `json:"total_power"`
		MeterReading MeterReading `json:"meter_reading"`
	}{
		OpMode:       s.OpMode(),
		Charging:     s.Charging(),
		Disconnected: s.Disconnected(),
		Online:       s.Online(),
		TotalPower:   s.TotalPower(),
		MeterReading: s.MeterReading(),
	})
}
