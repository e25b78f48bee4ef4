package types

type UsageKind string

const (
	KindUsageBased UsageKind = "usage_based"
	KindIncluded   UsageKind = "included"
	KindUnknown    UsageKind = "unknown"
)

// ParseUsageKind normalizes the kind labels the admin API emits.
func ParseUsageKind(s string) UsageKind {
	switch s {
	case "Usage-based", "usage-based", "USAGE_BASED":
		return KindUsageBased
	case "Included", "included", "INCLUDED":
		return KindIncluded
	default:
		return KindUnknown
	}
}

type TokenCounts struct {
	Input      int `json:"input"`
	Output     int `json:"output"`
	CacheWrite int `json:"cache_write"`
	CacheRead  int `json:"cache_read"`
}

func (t TokenCounts) Total() int {
	return t.Input + t.Output + t.CacheWrite + t.CacheRead
}

type UsageEvent struct {
	Timestamp        UTCTime     `json:"timestamp"`
	UserEmail        string      `json:"user_email"`
	Model            string      `json:"model"`
	Kind             UsageKind   `json:"kind"`
	TokenCostCents   float64     `json:"token_cost_cents"`
	PlatformFeeCents float64     `json:"platform_fee_cents"`
	IsChargeable     bool        `json:"is_chargeable"`
	IsTokenBased     bool        `json:"is_token_based"`
	Tokens           TokenCounts `json:"tokens"`
}

// Billable reports whether the event counts toward spend rollups.
func (e UsageEvent) Billable() bool {
	return e.Kind == KindUsageBased && e.IsChargeable && e.IsTokenBased
}

func (e UsageEvent) CostCents() float64 {
	return e.TokenCostCents + e.PlatformFeeCents
}

type PullRequest struct {
	Repo         string   `json:"repo"`
	Number       int      `json:"number"`
	Title        string   `json:"title"`
	CreatedAt    UTCTime  `json:"created_at"`
	MergedAt     *UTCTime `json:"merged_at,omitempty"`
	Comments     int      `json:"comments"`
	Commits      int      `json:"commits"`
	ChangedFiles int      `json:"changed_files"`
}

func (p PullRequest) Merged() bool {
	return p.MergedAt != nil
}

type Issue struct {
	Key          string   `json:"key"`
	Summary      string   `json:"summary"`
	Type         string   `json:"type"`
	CreatedAt    UTCTime  `json:"created_at"`
	InProgressAt *UTCTime `json:"in_progress_at,omitempty"`
	DoneAt       *UTCTime `json:"done_at,omitempty"`
}

type TeamMember struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Removed bool   `json:"removed"`
}
