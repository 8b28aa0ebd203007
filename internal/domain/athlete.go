package domain

import "encoding/json"

// Keys of the fixed hero fields inside the "about" object.
const (
	AboutKeyID       = "id"
	AboutKeyName     = "name"
	AboutKeyNickname = "nickname"
	AboutKeyDivision = "division"
	AboutKeyGender   = "gender"

	RecordKeyWLD = "wld"
)

// AthleteProfile is the "about" section of an athlete page.
// Bio holds the labelled c-bio fields (Age, Hometown, Height, ...) whose set varies per athlete.
type AthleteProfile struct {
	ID       string
	Name     string
	Nickname string
	Division string
	Gender   string
	Bio      Fields
}

// StatBlock maps stat labels to their displayed values.
type StatBlock = Fields

// RecordSummary is the win-loss-draw line plus the athlete-stats cards.
type RecordSummary struct {
	WLD   string
	Stats Fields
}

// AthleteRecord is one element of the persisted dataset.
type AthleteRecord struct {
	About        AthleteProfile `json:"about"`
	Stats        StatBlock      `json:"stats"`
	Record       RecordSummary  `json:"record"`
	FightHistory FightHistory   `json:"fight_history"`

	// Raw is set for a dataset entry that does not decode into this shape.
	// Only About.ID is populated alongside it, and the entry is written back as is.
	Raw json.RawMessage `json:"-"`
}

func (r AthleteRecord) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain AthleteRecord
	return EncodeJSON(plain(r))
}

// RawAthleteRecord wraps an undecodable dataset entry, keeping its about.id when it is a string.
func RawAthleteRecord(data json.RawMessage) *AthleteRecord {
	var entry struct {
		About map[string]json.RawMessage `json:"about"`
	}
	record := &AthleteRecord{Raw: append(json.RawMessage(nil), data...)}
	if err := json.Unmarshal(data, &entry); err == nil {
		_ = json.Unmarshal(entry.About[AboutKeyID], &record.About.ID)
	}
	return record
}

// ID returns the athlete identifier used for deduplication.
func (r *AthleteRecord) ID() string {
	if r == nil {
		return ""
	}
	return r.About.ID
}

// MarshalJSON flattens the hero fields and bio labels into one object.
// A bio label that collides with a hero key overwrites it.
func (p AthleteProfile) MarshalJSON() ([]byte, error) {
	var flat Fields
	flat.Set(AboutKeyID, p.ID)
	flat.Set(AboutKeyName, p.Name)
	flat.Set(AboutKeyNickname, p.Nickname)
	flat.Set(AboutKeyDivision, p.Division)
	flat.Set(AboutKeyGender, p.Gender)
	p.Bio.Each(func(label, value string) {
		flat.Set(label, value)
	})
	return flat.MarshalJSON()
}

func (p *AthleteProfile) UnmarshalJSON(data []byte) error {
	var flat Fields
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	p.ID = take(&flat, AboutKeyID)
	p.Name = take(&flat, AboutKeyName)
	p.Nickname = take(&flat, AboutKeyNickname)
	p.Division = take(&flat, AboutKeyDivision)
	p.Gender = take(&flat, AboutKeyGender)
	p.Bio = flat
	return nil
}

func (r RecordSummary) MarshalJSON() ([]byte, error) {
	var flat Fields
	flat.Set(RecordKeyWLD, r.WLD)
	r.Stats.Each(func(label, value string) {
		flat.Set(label, value)
	})
	return flat.MarshalJSON()
}

func (r *RecordSummary) UnmarshalJSON(data []byte) error {
	var flat Fields
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	r.WLD = take(&flat, RecordKeyWLD)
	r.Stats = flat
	return nil
}

func take(fields *Fields, key string) string {
	value, _ := fields.Get(key)
	fields.Delete(key)
	return value
}
