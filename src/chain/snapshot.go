package chain

import "time"

// SyncStatus is the node's block synchronisation status.
type SyncStatus struct {
	Syncing      bool  `json:"syncing"`
	CurrentBlock int64 `json:"currentBlock"`
	HighestBlock int64 `json:"highestBlock"`
}

// Epoch describes the current validation epoch.
type Epoch struct {
	Epoch                  int        `json:"epoch"`
	NextValidation         time.Time  `json:"nextValidation"`
	CurrentPeriod          string     `json:"currentPeriod"`
	CurrentValidationStart *time.Time `json:"currentValidationStart,omitempty"`
}

// CeremonyIntervals holds the timing configuration of the validation ceremony.
type CeremonyIntervals struct {
	Validation   time.Duration `json:"validation"`
	FlipLottery  time.Duration `json:"flipLottery"`
	ShortSession time.Duration `json:"shortSession"`
	LongSession  time.Duration `json:"longSession"`
}

// Snapshot is the consolidated chain state fetched in one poll cycle.
type Snapshot struct {
	Sync              SyncStatus        `json:"sync"`
	Epoch             Epoch             `json:"epoch"`
	Identity          Identity          `json:"identity"`
	CeremonyIntervals CeremonyIntervals `json:"ceremonyIntervals"`
}
