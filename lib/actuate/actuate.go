// Package actuate holds the built-in management endpoints.
package actuate

import (
	"time"

	convCfg "github.com/sofmon/actuator/lib/cfg"
	"github.com/sofmon/actuator/lib/endpoint"
)

const (
	IDHealth      = "health"
	IDHeapDump    = "heapdump"
	IDLogFile     = "logfile"
	IDAuditEvents = "auditevents"
	IDPrometheus  = "prometheus"
	IDArchive     = "archive"
)

func enabledKey(id string) convCfg.ConfigKey {
	return convCfg.ConfigKey("endpoints." + id + ".enabled")
}

func timeToLiveKey(id string) convCfg.ConfigKey {
	return convCfg.ConfigKey("endpoints." + id + ".cache.time-to-live")
}

// Enabled reads "endpoints.<id>.enabled"; endpoints are enabled by default.
func Enabled(id string) bool {
	return convCfg.BoolOrDefault(enabledKey(id), true)
}

// TimeToLive reads "endpoints.<id>.cache.time-to-live" as a Go duration;
// zero when unset or invalid.
func TimeToLive(id string) time.Duration {
	raw := convCfg.StringOrDefault(timeToLiveKey(id), "")
	if raw == "" {
		return 0
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}

// DiscovererOptions wires enablement and caching configuration into a
// Discoverer.
func DiscovererOptions() []endpoint.DiscovererOption {
	return []endpoint.DiscovererOption{
		endpoint.WithFilter(Enabled),
		endpoint.WithCaching(TimeToLive),
	}
}
