package lingo

import (
	"fmt"
	"time"
)

// PeriodKind defines the granularity of a usage counter period
type PeriodKind string

const (
	// PeriodDaily represents a calendar-day usage period (UTC)
	PeriodDaily PeriodKind = "daily"
	// PeriodMonthly represents a calendar-month usage period (UTC)
	PeriodMonthly PeriodKind = "monthly"
)

// PeriodKeyDaily returns the integer key for the calendar day of t (YYYYMMDD, UTC)
func PeriodKeyDaily(t time.Time) int {
	u := t.UTC()
	return u.Year()*10000 + int(u.Month())*100 + u.Day()
}

// PeriodKeyMonthly returns the integer key for the calendar month of t (YYYYMM, UTC)
func PeriodKeyMonthly(t time.Time) int {
	u := t.UTC()
	return u.Year()*100 + int(u.Month())
}

// UsageCounter tracks accumulated character usage for one user and one period.
// Counters are created lazily at zero on first access, never deleted, and only
// ever increase within a period. A new period key starts a fresh counter.
type UsageCounter struct {
	UserID     string
	Kind       PeriodKind
	PeriodKey  int
	Characters int
}

// UsagePair holds the daily and monthly counters for the current calendar periods
type UsagePair struct {
	Daily   *UsageCounter
	Monthly *UsageCounter
}

// ServiceTier classifies an external service for quota purposes
type ServiceTier string

const (
	// TierFree marks services whose calls are never counted against quota
	TierFree ServiceTier = "free"
	// TierPremium marks services whose calls are character-billed and
	// gated by the daily ceiling
	TierPremium ServiceTier = "premium"
)

// FieldKind identifies one of the derived column types. The set is closed:
// dispatch happens over this tag, not over open-ended subtypes.
type FieldKind string

const (
	// KindTranslation translates the source text into a target language
	KindTranslation FieldKind = "translation"
	// KindTransliteration converts the source text using a transliteration scheme
	KindTransliteration FieldKind = "transliteration"
	// KindDictionaryLookup looks the source text up in a dictionary
	KindDictionaryLookup FieldKind = "dictionary_lookup"
	// KindChineseRomanization produces a structured pinyin/jyutping record
	KindChineseRomanization FieldKind = "chinese_romanization"
)

// RomanizationSystem selects the Chinese romanization scheme
type RomanizationSystem string

const (
	// SystemPinyin is Mandarin pinyin
	SystemPinyin RomanizationSystem = "pinyin"
	// SystemJyutping is Cantonese jyutping
	SystemJyutping RomanizationSystem = "jyutping"
)

// FieldSpec describes one derived column and its binding to a source column.
// A derived field depends on at most one source field; SourceFieldID may be
// nil while the field is unbound. The host's field registry owns the spec,
// this package only reads it.
type FieldSpec struct {
	ID          int64
	TableID     int64
	WorkspaceID int64
	Kind        FieldKind

	// SourceFieldID references the column this field is derived from
	SourceFieldID *int64

	// SourceLanguage is the language configured on the source column
	SourceLanguage string

	// Translation parameters
	TargetLanguage string
	Service        string

	// Transliteration parameter, formatted "<service>:<scheme>"
	TransliterationID string

	// Dictionary lookup parameter, formatted "<service>:<dictionary>"
	LookupID string

	// Chinese romanization parameters
	Romanization RomanizationSystem
	ToneNumbers  bool
	Spaces       bool
}

// Column returns the host row-storage key for this field's values
func (s *FieldSpec) Column() string {
	return fmt.Sprintf("field_%d", s.ID)
}

// SourceColumn returns the host row-storage key of the source field,
// or "" when the field is unbound
func (s *FieldSpec) SourceColumn() string {
	if s.SourceFieldID == nil {
		return ""
	}
	return fmt.Sprintf("field_%d", *s.SourceFieldID)
}

// Dependencies returns the field ids this spec depends on. At most one entry;
// empty while the source binding is unset.
func (s *FieldSpec) Dependencies() []int64 {
	if s.SourceFieldID == nil {
		return nil
	}
	return []int64{*s.SourceFieldID}
}

// Row is the host's view of a single table row: an identifier plus the field
// values keyed by column name ("field_<id>"). Persistence belongs to the host;
// this package computes values and hands rows back for bulk update.
type Row struct {
	ID     int64
	Values map[string]any
}

// Catalog holds the supported-language metadata pulled from the external
// provider. Languages maps language codes to display names; Services maps
// service names to their quota tier.
type Catalog struct {
	Languages map[string]string
	Services  map[string]ServiceTier
}

// Clock abstracts time for period calculations and wall-clock budgets,
// so tests can pin the calendar.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now
func SystemClock() Clock { return systemClock{} }
