package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgPico = `{
  "console": {
      "baud": 115200,
      "rx_buffer": 64
  },
  "shell": {
      "prompt": "> "
  },
  "stats": {
      "interval": 2
  },
  "bridge": {
      "topics": ["console/#"]
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
}
