package untis

import "time"

// Legend element types as used by the provider's elements array.
const (
	ElementCourse = 3
	ElementRoom   = 4
)

// ElementRef points a raw period at a legend entry.
type ElementRef struct {
	Type int `json:"type"`
	ID   int `json:"id"`
}

// RawReschedule is the provider's moved-slot record. IsSource marks
// which side of the origin/destination pair is authoritative.
type RawReschedule struct {
	Date      int  `json:"date"`      // YYYYMMDD
	StartTime int  `json:"startTime"` // HHmm, zero-padded
	EndTime   int  `json:"endTime"`   // HHmm, zero-padded
	IsSource  bool `json:"isSource"`
}

// RawFlags carries the provider's boolean classification of a slot.
type RawFlags struct {
	Cancelled bool `json:"cancelled"`
	Standard  bool `json:"standard"`
	Event     bool `json:"event"`
}

// RawPeriod is one scheduled slot exactly as the provider serves it.
type RawPeriod struct {
	ID           int            `json:"id"`
	LessonID     int            `json:"lessonId"`
	LessonNumber int            `json:"lessonNumber"`
	LessonCode   string         `json:"lessonCode"`
	Date         int            `json:"date"`      // YYYYMMDD
	StartTime    int            `json:"startTime"` // HHmm, zero-padded
	EndTime      int            `json:"endTime"`   // HHmm, zero-padded
	CellState    string         `json:"cellState"`
	Priority     *int           `json:"priority,omitempty"`
	Note         string         `json:"periodText"`
	Elements     []ElementRef   `json:"elements"`
	Is           RawFlags       `json:"is"`
	Reschedule   *RawReschedule `json:"rescheduleInfo,omitempty"`
	RoomCapacity int            `json:"roomCapacity"`
	StudentCount int            `json:"studentCount"`
}

// RawLegend is one shared legend record; Type discriminates rooms from
// courses from other kinds. Only consumed during normalization.
type RawLegend struct {
	Type             int    `json:"type"`
	ID               int    `json:"id"`
	Name             string `json:"name"`
	LongName         string `json:"longName"`
	DisplayName      string `json:"displayname"`
	AlternateName    string `json:"alternatename"`
	BackColor        string `json:"backColor"`
	CanViewTimetable bool   `json:"canViewTimetable"`
	RoomCapacity     int    `json:"roomCapacity"`
}

// Window is one requested fetch range, inclusive of both days.
type Window struct {
	Start time.Time
	End   time.Time
}

// Payload is one window's worth of provider data.
type Payload struct {
	Periods []RawPeriod `json:"periods"`
	Legend  []RawLegend `json:"legend"`
	// LastImport is the provider-side import timestamp in Unix millis.
	LastImport int64 `json:"lastImportTimestamp"`
}
