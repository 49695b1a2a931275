// Package config loads runtime configuration for the preview CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "backend_url": "http://127.0.0.1:8080",
//	  "health_addr": "127.0.0.1:50051",
//	  "editor_url": "https://editor.example",
//	  "online_check_interval": "3s",
//	  "readiness_timeout": "10s",
//	  "min_confirmations": 3,
//	  "max_download_bytes": 33554432,
//	  "cache_size": 128,
//	  "cache_ttl": "1m",
//	  "log_level": "info"
//	}
//
// This package does not read environment variables.
package config
