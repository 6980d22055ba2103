package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// cfgHandheld is the production unit: 100 kHz tick interrupt, ten transmit
// channels, 200 ms bursts.
const cfgHandheld = `{
  "transmitter": {
      "pin": 15,
      "tick_rate_hz": 100000,
      "frequencies_hz": [1471, 1724, 2000, 2273, 2632, 2941, 3333, 3571, 3846, 4167],
      "pulse_width": 20000,
      "continuous": false,
      "debug": false
  },
  "inputs": {
      "trigger_pin": 10,
      "trigger_invert": true,
      "debounce_ms": 5,
      "channel_pins": [2, 3, 4, 5]
  },
  "telemetry": {
      "interval_ms": 5000
  },
  "heartbeat": {
      "interval": 2
  }
}`

// cfgHost runs the same firmware against in-memory pins at a tick rate a
// host timer can actually sustain.
const cfgHost = `{
  "transmitter": {
      "pin": 15,
      "tick_rate_hz": 1000,
      "frequencies_hz": [50, 100, 200],
      "pulse_width": 300,
      "continuous": false,
      "debug": true
  },
  "inputs": {
      "trigger_pin": 10,
      "trigger_invert": false,
      "debounce_ms": 5,
      "channel_pins": [2, 3]
  },
  "heartbeat": {
      "interval": 2
  }
}`

var embeddedConfigs = map[string][]byte{
	"handheld": []byte(cfgHandheld),
	"host":     []byte(cfgHost),
}
