package telemetry

import "log/slog"

// LifetimeStats tracks per-unit combat statistics over its lifetime.
type LifetimeStats struct {
	BirthTick       int32   `json:"birth_tick"`
	SurvivalTimeSec float64 `json:"survival_time_sec"`
	Player          int     `json:"player"`

	Shots       int     `json:"shots"`
	Hits        int     `json:"hits"`
	Kills       int     `json:"kills"`
	DamageDealt float64 `json:"damage_dealt"`
	DamageTaken float64 `json:"damage_taken"`

	Solves     int `json:"solves"`
	Infeasible int `json:"infeasible"`
}

// LogValue implements slog.LogValuer for structured logging.
func (ls *LifetimeStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("player", ls.Player),
		slog.Float64("survival_time_sec", ls.SurvivalTimeSec),
		slog.Int("shots", ls.Shots),
		slog.Int("hits", ls.Hits),
		slog.Int("kills", ls.Kills),
		slog.Float64("damage_dealt", ls.DamageDealt),
		slog.Float64("damage_taken", ls.DamageTaken),
		slog.Int("solves", ls.Solves),
		slog.Int("infeasible", ls.Infeasible),
	)
}

// LifetimeTracker manages per-unit lifetime statistics keyed by unit id.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new unit.
func (lt *LifetimeTracker) Register(unitID uint32, birthTick int32, player int) {
	lt.stats[unitID] = &LifetimeStats{
		BirthTick: birthTick,
		Player:    player,
	}
}

// Get returns the lifetime stats for a unit, or nil if not found.
func (lt *LifetimeTracker) Get(unitID uint32) *LifetimeStats {
	return lt.stats[unitID]
}

// Remove removes a unit's stats and returns them (for logging).
func (lt *LifetimeTracker) Remove(unitID uint32) *LifetimeStats {
	stats := lt.stats[unitID]
	delete(lt.stats, unitID)
	return stats
}

// RecordShot increments the shot count.
func (lt *LifetimeTracker) RecordShot(unitID uint32) {
	if s := lt.stats[unitID]; s != nil {
		s.Shots++
	}
}

// RecordHit credits the shooter and debits the victim. Either may already
// be gone.
func (lt *LifetimeTracker) RecordHit(shooterID, victimID uint32, damage float64) {
	if s := lt.stats[shooterID]; s != nil {
		s.Hits++
		s.DamageDealt += damage
	}
	if s := lt.stats[victimID]; s != nil {
		s.DamageTaken += damage
	}
}

// RecordKill increments the kill count.
func (lt *LifetimeTracker) RecordKill(unitID uint32) {
	if s := lt.stats[unitID]; s != nil {
		s.Kills++
	}
}

// RecordSolve counts a targeting solve.
func (lt *LifetimeTracker) RecordSolve(unitID uint32, feasible bool) {
	if s := lt.stats[unitID]; s != nil {
		s.Solves++
		if !feasible {
			s.Infeasible++
		}
	}
}

// UpdateSurvivalTime updates the survival time based on current tick.
func (lt *LifetimeTracker) UpdateSurvivalTime(unitID uint32, currentTick int32, dt float64) {
	if s := lt.stats[unitID]; s != nil {
		s.SurvivalTimeSec = float64(currentTick-s.BirthTick) * dt
	}
}

// Count returns the number of tracked units.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
