package types

// State is a pipeline run state.
type State string

const (
	StateReceived State = "RECEIVED"
	StateFiltered State = "FILTERED"
	StateAnalyzed State = "ANALYZED"
	StateRecorded State = "RECORDED"
	StateDecided  State = "DECIDED"
	StateDone     State = "DONE"
	StateAborted  State = "ABORTED"
)

// Terminal reports whether no further transition exists from s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// AnalysisRecord accumulates derived fields for one pipeline run.
// Created at pipeline entry and discarded at exit.
type AnalysisRecord struct {
	Event         NewsEvent      `json:"event"`
	State         State          `json:"state"`
	Duplicate     bool           `json:"duplicate"`
	Entities      []string       `json:"entities,omitempty"`
	Sentiment     float64        `json:"sentiment_score"`
	Impact        Impact         `json:"market_impact,omitempty"`
	Regime        Regime         `json:"market_regime,omitempty"`
	ForensicScore int            `json:"forensic_score"`
	Decision      *TradeDecision `json:"decision,omitempty"`
	Err           error          `json:"-"`
	Error         string         `json:"error,omitempty"`
}

// NewAnalysisRecord starts a fresh record for ev.
func NewAnalysisRecord(ev NewsEvent) *AnalysisRecord {
	return &AnalysisRecord{Event: ev, State: StateReceived}
}
