package weather

import (
	"sync"
	"time"
)

// Snapshot represents the current station weather as served to renderers
type Snapshot struct {
	TemperatureC     int       `json:"temperature_c"`
	Condition        string    `json:"condition"`
	WMOCode          int       `json:"wmo_code"`
	WindSpeedKmh     int       `json:"wind_speed_kmh"`
	WindDirectionDeg int       `json:"wind_direction_deg"`
	HumidityPct      int       `json:"humidity_pct"`
	VisibilityM      float64   `json:"visibility_m"`
	IsDay            bool      `json:"is_day"`
	IFR              bool      `json:"ifr"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Cache holds the last good weather snapshot. A failed refresh leaves the
// cached snapshot in place, so consumers keep seeing stale-but-valid data.
type Cache struct {
	mu        sync.RWMutex
	snapshot  *Snapshot
	expiresAt time.Time
}

// NewCache creates an empty weather cache
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached snapshot, or nil if none has been stored yet
func (c *Cache) Get() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Set stores a new snapshot with the given expiry
func (c *Cache) Set(s *Snapshot, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = s
	c.expiresAt = time.Now().Add(ttl)
}

// IsExpired reports whether the cached snapshot is past its expiry
func (c *Cache) IsExpired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Now().After(c.expiresAt)
}

// wmoConditions maps WMO weather interpretation codes (WW) to display text
var wmoConditions = map[int]string{
	0:  "Despejado",
	1:  "Mayormente Despejado",
	2:  "Parcialmente Nublado",
	3:  "Nublado",
	45: "Niebla",
	48: "Niebla con escarcha",
	51: "Llovizna Ligera",
	53: "Llovizna Moderada",
	55: "Llovizna Densa",
	61: "Lluvia Leve",
	63: "Lluvia Moderada",
	65: "Lluvia Fuerte",
	71: "Nieve Ligera",
	73: "Nieve Moderada",
	75: "Nieve Fuerte",
	95: "Tormenta",
}

// ConditionForCode returns the display text for a WMO weather code
func ConditionForCode(code int) string {
	if c, ok := wmoConditions[code]; ok {
		return c
	}
	return "Desconocido"
}

// Low-visibility thresholds for the IFR flag
const (
	ifrVisibilityM = 5000.0
	ifrMinWMOCode  = 45 // fog and anything worse
)

// IsIFR reports whether conditions call for instrument flight rules
func IsIFR(visibilityM float64, wmoCode int) bool {
	return visibilityM < ifrVisibilityM || wmoCode >= ifrMinWMOCode
}
