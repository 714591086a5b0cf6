package quotas

import (
	"time"

	"hutsync/internal/hrs"
)

// Quota is the parent mirror row of a remote quota record. DateTo is
// exclusive, matching the platform. Rows are only ever rewritten wholesale
// per window, never patched.
type Quota struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RemoteID        int64     `gorm:"index;not null" json:"remote_id"`
	HutID           int       `gorm:"not null;index:idx_quotas_hut_window,priority:1" json:"hut_id"`
	DateFrom        time.Time `gorm:"type:date;not null;index:idx_quotas_hut_window,priority:2" json:"date_from"`
	DateTo          time.Time `gorm:"type:date;not null;index:idx_quotas_hut_window,priority:3" json:"date_to"`
	Title           string    `gorm:"type:varchar(255)" json:"title"`
	ReservationMode string    `gorm:"type:varchar(20)" json:"reservation_mode"`
	Capacity        int       `gorm:"not null;default:0" json:"capacity"`

	// Recurrence as mirrored from the platform; unused there, kept nullable
	SeriesBeginDate *time.Time `gorm:"type:date" json:"series_begin_date,omitempty"`
	SeriesEndDate   *time.Time `gorm:"type:date" json:"series_end_date,omitempty"`
	RecurringMode   *string    `gorm:"type:varchar(32)" json:"recurring_mode,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	BedCategories []QuotaBedCategory `gorm:"foreignKey:QuotaID;constraint:OnDelete:CASCADE;" json:"bed_categories,omitempty"`
	Descriptions  []QuotaDescription `gorm:"foreignKey:QuotaID;constraint:OnDelete:CASCADE;" json:"descriptions,omitempty"`
}

// TableName sets the table name for Quota
func (Quota) TableName() string {
	return "quotas"
}

// QuotaBedCategory is one category's bed count under a mirror row.
type QuotaBedCategory struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	QuotaID        uint   `gorm:"index;not null" json:"quota_id"`
	CategoryID     int    `gorm:"not null" json:"category_id"`
	CategoryCode   string `gorm:"type:varchar(16);not null" json:"category_code"`
	SleepingPlaces int    `gorm:"not null;default:0" json:"sleeping_places"`
}

// TableName sets the table name for QuotaBedCategory
func (QuotaBedCategory) TableName() string {
	return "quota_bed_categories"
}

// QuotaDescription is a per-language description under a mirror row.
type QuotaDescription struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	QuotaID     uint   `gorm:"index;not null" json:"quota_id"`
	Language    string `gorm:"type:varchar(8);not null" json:"language"`
	Description string `gorm:"type:varchar(512)" json:"description"`
}

// TableName sets the table name for QuotaDescription
func (QuotaDescription) TableName() string {
	return "quota_descriptions"
}

// Capacities maps category code to bed count.
type Capacities map[string]int

// Total sums all categories.
func (c Capacities) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Clone returns an independent copy.
func (c Capacities) Clone() Capacities {
	out := make(Capacities, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// QuotaRecord is the reconciler's view of one remote record: a [From, To)
// day range with per-category capacities. Multi-day records are a remote
// storage optimization, not a grouping that must survive reconciliation.
type QuotaRecord struct {
	RemoteID   int64
	Title      string
	Mode       string
	DateFrom   time.Time // inclusive day
	DateTo     time.Time // exclusive day
	Capacities Capacities
	Languages  map[string]string
}

// recordFromDTO converts a wire record into the domain shape, parsing the
// platform dates and normalizing a defective end date.
func recordFromDTO(dto hrs.QuotaDTO) (QuotaRecord, error) {
	from, err := hrs.ParseDate(dto.DateFrom)
	if err != nil {
		return QuotaRecord{}, err
	}
	to, err := hrs.ParseDate(dto.DateTo)
	if err != nil {
		return QuotaRecord{}, err
	}

	caps := make(Capacities, len(dto.BedCategories))
	for _, bc := range dto.BedCategories {
		if code, ok := hrs.CategoryCode(bc.CategoryID); ok {
			caps[code] = bc.TotalSleepingPlaces
		}
	}

	langs := make(map[string]string, len(dto.Languages))
	for _, l := range dto.Languages {
		langs[l.Language] = l.Description
	}

	return QuotaRecord{
		RemoteID:   dto.ID,
		Title:      dto.Title,
		Mode:       dto.ReservationMode,
		DateFrom:   from,
		DateTo:     normalizeEnd(from, to),
		Capacities: caps,
		Languages:  langs,
	}, nil
}

// recordToDTO renders a domain record back into the wire shape. New records
// carry id 0.
func recordToDTO(rec QuotaRecord) hrs.QuotaDTO {
	categories := make([]hrs.BedCategoryDTO, 0, len(rec.Capacities))
	for _, code := range hrs.CategoryCodes() {
		beds, ok := rec.Capacities[code]
		if !ok {
			continue
		}
		id, _ := hrs.CategoryID(code)
		categories = append(categories, hrs.BedCategoryDTO{
			CategoryID:          id,
			TotalSleepingPlaces: beds,
		})
	}

	languages := make([]hrs.LanguageDTO, 0, len(rec.Languages))
	for lang, desc := range rec.Languages {
		languages = append(languages, hrs.LanguageDTO{Language: lang, Description: desc})
	}

	return hrs.QuotaDTO{
		ID:              rec.RemoteID,
		Title:           rec.Title,
		ReservationMode: rec.Mode,
		Capacity:        rec.Capacities.Total(),
		DateFrom:        hrs.FormatDate(rec.DateFrom),
		DateTo:          hrs.FormatDate(rec.DateTo),
		BedCategories:   categories,
		Languages:       languages,
	}
}

// mirrorRowFromDTO maps a wire record onto mirror rows for a window rewrite.
func mirrorRowFromDTO(dto hrs.QuotaDTO, hutID int) (Quota, error) {
	rec, err := recordFromDTO(dto)
	if err != nil {
		return Quota{}, err
	}

	row := Quota{
		RemoteID:        rec.RemoteID,
		HutID:           hutID,
		DateFrom:        rec.DateFrom,
		DateTo:          rec.DateTo,
		Title:           rec.Title,
		ReservationMode: rec.Mode,
		Capacity:        rec.Capacities.Total(),
	}

	for _, code := range hrs.CategoryCodes() {
		beds, ok := rec.Capacities[code]
		if !ok {
			continue
		}
		id, _ := hrs.CategoryID(code)
		row.BedCategories = append(row.BedCategories, QuotaBedCategory{
			CategoryID:     id,
			CategoryCode:   code,
			SleepingPlaces: beds,
		})
	}

	for lang, desc := range rec.Languages {
		row.Descriptions = append(row.Descriptions, QuotaDescription{
			Language:    lang,
			Description: desc,
		})
	}

	return row, nil
}
