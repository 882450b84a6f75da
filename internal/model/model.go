package model

import "time"

type ScanMode string

const (
	ModeAutomatic ScanMode = "automatic"
	ModeStep      ScanMode = "step"
)

type ScanDirection string

const (
	DirectionRowColumn ScanDirection = "row-column"
	DirectionItem      ScanDirection = "item"
)

type SwitchType string

const (
	SwitchSingle SwitchType = "single"
	SwitchDual   SwitchType = "dual"
)

type ScanPhase string

const (
	PhaseIdle   ScanPhase = "idle"
	PhaseRow    ScanPhase = "row"
	PhaseColumn ScanPhase = "column"
	PhaseItem   ScanPhase = "item"
)

type EventType string

const (
	EventSelect   EventType = "select"
	EventNext     EventType = "next"
	EventPrevious EventType = "previous"
	EventStart    EventType = "start"
	EventStop     EventType = "stop"
)

type EventSource string

const (
	SourceInternal EventSource = "internal"
	SourceExternal EventSource = "external"
)

type PressKind string

const (
	PressSelect   PressKind = "select"
	PressNext     PressKind = "next"
	PressPrevious PressKind = "previous"
)

// ScanSettings is an immutable snapshot; consumers receive copies and never
// mutate one in place.
type ScanSettings struct {
	Enabled         bool          `json:"enabled"`
	Speed           time.Duration `json:"speed"`
	Mode            ScanMode      `json:"mode"`
	Direction       ScanDirection `json:"direction"`
	SwitchType      SwitchType    `json:"switch_type"`
	AutoSelect      bool          `json:"auto_select"`
	AutoSelectDelay time.Duration `json:"auto_select_delay"`
}

// ScanState is owned by the scan engine. External readers get copies.
type ScanState struct {
	IsScanning        bool      `json:"is_scanning"`
	Phase             ScanPhase `json:"phase"`
	CurrentRow        int       `json:"current_row"`
	CurrentColumn     int       `json:"current_column"`
	CurrentItem       int       `json:"current_item"`
	TotalRows         int       `json:"total_rows"`
	TotalColumns      int       `json:"total_columns"`
	TotalItems        int       `json:"total_items"`
	HighlightedButton string    `json:"highlighted_button,omitempty"`
	SessionID         string    `json:"session_id,omitempty"`
}

// SwitchEvent is never mutated after publication.
type SwitchEvent struct {
	Type      EventType   `json:"type"`
	Source    EventSource `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	SessionID string      `json:"session_id,omitempty"`
}

// Profile is a named, persisted ScanSettings preset. Exactly one profile is
// active at a time.
type Profile struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Settings  ScanSettings `json:"settings"`
	Active    bool         `json:"active"`
	CreatedAt time.Time    `json:"created_at"`
}

// Selection records one finalized scan selection.
type Selection struct {
	ID         string        `json:"id"`
	SessionID  string        `json:"session_id"`
	ButtonID   string        `json:"button_id"`
	Row        int           `json:"row"`
	Column     int           `json:"column"`
	Item       int           `json:"item"`
	Direction  ScanDirection `json:"direction"`
	SelectedAt time.Time     `json:"selected_at"`
}

// TutorialStep is one entry in the seeded onboarding walkthrough.
type TutorialStep struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Position  int    `json:"position"`
	Completed bool   `json:"completed"`
}

// Suggestion is a static phrase-suggestion rule: the phrase is offered when
// the current hour falls inside [FromHour, ToHour) and, if a tag filter is
// given, the rule carries that tag.
type Suggestion struct {
	Phrase   string   `json:"phrase"`
	Tags     []string `json:"tags"`
	FromHour int      `json:"from_hour"`
	ToHour   int      `json:"to_hour"`
	Weight   int      `json:"weight"`
}

// ValidScanMode reports whether mode is a known scan mode.
func ValidScanMode(mode ScanMode) bool {
	return mode == ModeAutomatic || mode == ModeStep
}

// ValidDirection reports whether dir is a known scan direction.
func ValidDirection(dir ScanDirection) bool {
	return dir == DirectionRowColumn || dir == DirectionItem
}

// ValidSwitchType reports whether st is a known switch type.
func ValidSwitchType(st SwitchType) bool {
	return st == SwitchSingle || st == SwitchDual
}

// ValidPressKind reports whether kind is a known switch press.
func ValidPressKind(kind PressKind) bool {
	return kind == PressSelect || kind == PressNext || kind == PressPrevious
}
