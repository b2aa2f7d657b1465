// Package config provides user configuration management for ithorft.
//
// The configuration is a YAML file naming the radio gateway and the session
// settings. It follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/ithorft/config.yaml or $HOME/.config/ithorft/config.yaml
//   - macOS: $HOME/.config/ithorft/config.yaml
//   - Windows: %LOCALAPPDATA%\ithorft\config.yaml
//
// The paired identity lives next to it in identity.yaml unless identity_file
// points elsewhere.
//
// # Example
//
//	version: 1
//	gateway: /dev/ttyUSB0
//	baud: 115200
//	pairing_timeout: 1m0s
//	min_gateway_version: 0.7.0
//	capture_dir: /var/log/ithorft
//	metrics_addr: :9273
//	discovery:
//	    service: _evofw3._tcp
//	    domain: local.
//	    timeout: 5s
//
// # Environment
//
// ITHORFT_GATEWAY and ITHORFT_BAUD override the file. Command line flags
// override both.
//
// # Thread Safety
//
// File writes are protected by a mutex and performed atomically.
package config
