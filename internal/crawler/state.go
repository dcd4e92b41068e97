package crawler

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go-zhipin-automation/internal/logger"
)

const stateFileName = "crawl_state.json"

// cursorState is the persisted position inside the search-parameter
// sweep. Repeated runs resume from it instead of restarting.
type cursorState struct {
	Start  int  `json:"start"`
	Seeded bool `json:"seeded"`
}

func loadState(cacheDir string) cursorState {
	var state cursorState
	data, err := os.ReadFile(filepath.Join(cacheDir, stateFileName))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WithError(err).Warnf("could not read crawl state")
		}
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		logger.WithError(err).Warnf("corrupt crawl state ignored")
		return cursorState{}
	}
	return state
}

func saveState(cacheDir string, state cursorState) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		logger.WithError(err).Warnf("could not create cache directory")
		return
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(cacheDir, stateFileName), data, 0o644); err != nil {
		logger.WithError(err).Warnf("could not persist crawl state")
	}
}
