package config

// EngineConfig — политика ядра бронирования: окно отмены, ступени
// штрафов, шаг слотов и период фонового прохода напоминаний.
type EngineConfig struct {
	CancelWindowHours int
	LateCancelPct     float64
	LastMinuteHours   int
	LastMinutePct     float64
	SlotStepMinutes   int
	WaitlistTTLDays   int
	ReminderSweepMin  int // период фонового прохода, минут
}

func LoadEngineConfig() *EngineConfig {
	return &EngineConfig{
		CancelWindowHours: getEnvInt("POLICY_CANCEL_WINDOW_HOURS", 24),
		LateCancelPct:     getEnvFloat("POLICY_LATE_CANCEL_PCT", 50),
		LastMinuteHours:   getEnvInt("POLICY_LAST_MINUTE_HOURS", 2),
		LastMinutePct:     getEnvFloat("POLICY_LAST_MINUTE_PCT", 100),
		SlotStepMinutes:   getEnvInt("POLICY_SLOT_STEP_MINUTES", 15),
		WaitlistTTLDays:   getEnvInt("POLICY_WAITLIST_TTL_DAYS", 7),
		ReminderSweepMin:  getEnvInt("REMINDER_SWEEP_MINUTES", 5),
	}
}
