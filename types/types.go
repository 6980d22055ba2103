package types

// ---- Transmitter state (retained) ----

type TransmitterStatus struct {
	Running    bool   `json:"running"`
	Frequency  int    `json:"frequency"`
	Continuous bool   `json:"continuous"`
	PulseWidth uint32 `json:"pulse_width"`
	TS         int64  `json:"ts_ms"`
}

// ---- Capability kinds & info ----

type Kind string

const (
	KindTransmitter Kind = "transmitter"
	KindButton      Kind = "button"
	KindSwitch      Kind = "switch"
	KindTemperature Kind = "temperature"
	KindHumidity    Kind = "humidity"
)

// Info envelope each capability exposes (retained)
type Info struct {
	SchemaVersion int         `json:"schema_version"`
	Driver        string      `json:"driver"`
	Detail        interface{} `json:"detail,omitempty"`
}

type TransmitterInfo struct {
	Pin        int   `json:"pin"`
	TickRateHz int   `json:"tick_rate_hz"`
	Channels   int   `json:"channels"`
	TableTicks []int `json:"table_ticks,omitempty"`
}

// ---- Transmitter control payloads ----

type TxRun struct{}

type TxSetFrequency struct {
	Frequency int `json:"frequency"`
}

type TxSetPulseWidth struct {
	Width uint32 `json:"width"`
}

type TxSetMode struct {
	Continuous bool `json:"continuous"`
}

type TxSetDebug struct {
	On bool `json:"on"`
}

// ---- Transmitter events ----

type BurstEvent struct {
	Frequency int    `json:"frequency"`
	Period    uint16 `json:"period"`
	TS        int64  `json:"ts_ms"`
}

// ---- Input payloads ----

type ButtonInfo struct{ Pin int }

type ButtonValue struct{ Pressed bool }

type SwitchValue struct{ On bool }
type SwitchInfo struct{ Pin int }

// ---- Environment telemetry ----

type TemperatureValue struct {
	DeciC int16 `json:"deci_c"`
}

type HumidityValue struct {
	RHx100 uint16 `json:"rh_x100"`
}

// Generic replies
type OKReply struct {
	OK bool `json:"ok"`
}
type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
