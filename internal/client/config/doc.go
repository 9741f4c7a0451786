// Package config loads runtime configuration for the attendkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the attendance server
//	-r int      request timeout (seconds)
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:3000",
//	  "request_timeout": "3m",
//	  "online_check_interval": "3s"
//	}
package config
