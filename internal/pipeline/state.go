// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

// State is the driver's position in a run.
type State int32

const (
	StateIdle State = iota
	StateFetchingListing
	StateParsing
	StateBatchQuerying
	StateFilteringNovel
	StatePerItemProcessing
)

var stateNames = [...]string{
	StateIdle:              "IDLE",
	StateFetchingListing:   "FETCHING_LISTING",
	StateParsing:           "PARSING",
	StateBatchQuerying:     "BATCH_QUERYING",
	StateFilteringNovel:    "FILTERING_NOVEL",
	StatePerItemProcessing: "PER_ITEM_PROCESSING",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}
