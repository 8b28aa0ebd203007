package domain

import "strings"

// Placeholders stored when a value cannot be derived from the fight card.
const (
	UnknownFighterID   = "unknown"
	UnknownFighterName = "Unknown"
	DrawNoContestID    = "draw-no-contest"
	DrawNoContestName  = "Draw/No Contest"
	UnknownEventID     = "unknown-event"
	UnknownEventName   = "Unknown Event"
	NotAvailable       = "N/A"
	UnknownDateKey     = "unknown-date"
)

// FightRecord is one bout from an athlete's fight history.
type FightRecord struct {
	Fighter1   string `json:"fighter1"`
	Fighter2   string `json:"fighter2"`
	Fighter1ID string `json:"fighter1_id"`
	Fighter2ID string `json:"fighter2_id"`
	Winner     string `json:"winner"`
	Loser      string `json:"loser"`
	WinnerID   string `json:"winner_id"`
	LoserID    string `json:"loser_id"`
	Date       string `json:"date"`
	Round      string `json:"round"`
	Time       string `json:"time"`
	Method     string `json:"method"`
	Event      string `json:"event"`
	EventID    string `json:"event_id"`
}

// Key identifies the bout inside a fight history: <fighter1_id>_vs_<fighter2_id>_<date>.
func (f FightRecord) Key() string {
	return f.Fighter1ID + "_vs_" + f.Fighter2ID + "_" + NormalizeDate(f.Date)
}

// NormalizeDate turns a displayed date such as "Mar. 19, 2022" into "Mar_19_2022".
// The result is only used in keys; FightRecord.Date keeps the raw text.
func NormalizeDate(raw string) string {
	if raw == "" {
		return UnknownDateKey
	}
	normalized := strings.ReplaceAll(raw, ".", "")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, ",", "")
	return normalized
}

// FightHistory maps composite fight keys to records, in the order fights were first seen.
type FightHistory struct {
	OrderedMap[FightRecord]
}

// Add stores a single record under its composite key.
func (h *FightHistory) Add(fight FightRecord) {
	h.Set(fight.Key(), fight)
}

// Merge folds another page of fights into h. Entries sharing a key are replaced (last write wins).
func (h *FightHistory) Merge(other FightHistory) {
	other.Each(func(key string, fight FightRecord) {
		h.Set(key, fight)
	})
}
