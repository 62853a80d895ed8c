package ethtxmanager

import "time"

type Config struct {
	// Frequency to look for payments whose earliest pay time has passed
	FrequencyToCollect time.Duration

	// Frequency to monitor pending transactions
	FrequencyToMonitorPendingTxs time.Duration

	TimeoutOnMonitoringPendingTxs uint64 // in blocks

	// Upper bound of collect transactions sent per round
	MaxCollectsPerRound int
}

func DefaultConfig() *Config {
	return &Config{
		FrequencyToCollect:            5 * time.Second,
		FrequencyToMonitorPendingTxs:  2 * time.Second,
		TimeoutOnMonitoringPendingTxs: 20,
		MaxCollectsPerRound:           16,
	}
}
