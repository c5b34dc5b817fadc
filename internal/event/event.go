package event

// DomainTag is the category tag every scraped event carries. It is always the
// first entry of an Event's Type list and participates in identity keys.
const DomainTag = "pop up"

// Well-known keys of the raw field maps produced by source adapters.
const (
	FieldName            = "name"
	FieldDescription     = "description"
	FieldLocation        = "location"
	FieldCity            = "city"
	FieldState           = "state"
	FieldDate            = "date"
	FieldType            = "type"
	FieldImage           = "image"
	FieldSourceEventID   = "source_event_id"
	FieldApplicationLink = "application_link"
	FieldDetailLink      = "detail_link"
	FieldFee             = "fee"
)

// Raw is the untyped field map a source adapter extracts for one event,
// before normalization. Keys are the Field* constants.
type Raw map[string]string

// Merge copies fields from other into r without overwriting already-populated
// fields. Used when detail-page extraction supplements list-level fields.
func (r Raw) Merge(other Raw) {
	for k, v := range other {
		if r[k] == "" {
			r[k] = v
		}
	}
}

// Location is a best-effort city/state split of free-text location strings.
// Both fields default to empty when the source text is unparseable.
type Location struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// Timestamp mirrors the document store's native timestamp shape. A zero value
// means the source exposed no machine-parseable time.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// IsZero reports whether the timestamp is the unparsed-date placeholder.
func (t Timestamp) IsZero() bool {
	return t.Seconds == 0 && t.Nanoseconds == 0
}

// Event is the canonical, source-independent record persisted to the events
// collection. Name is required; every other field has a defined default.
// Date is the source-native text, preserved verbatim; formats differ per site.
type Event struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Location        Location `json:"location"`
	Date            string   `json:"date"`
	Type            []string `json:"type"`
	Image           string   `json:"image"`
	SourceEventID   string   `json:"source_event_id,omitempty"`
	IdentityKey     string   `json:"identity_key"`
	ApplicationLink string   `json:"application_link,omitempty"`

	// Enrichment metadata. No adapter populates these beyond best-effort
	// fee-text capture; they exist so later enrichment stages have a home.
	VendorFee    string            `json:"vendorFee,omitempty"`
	TotalCost    string            `json:"totalCost,omitempty"`
	Headcount    int               `json:"headcount,omitempty"`
	AttendeeType string            `json:"attendeeType,omitempty"`
	Demographics map[string]string `json:"demographics,omitempty"`

	StartDate Timestamp `json:"startDate"`
	EndDate   Timestamp `json:"endDate"`
}

// New creates an Event with the domain tag seeded and all defaults in place.
func New(name string) *Event {
	return &Event{
		Name: name,
		Type: []string{DomainTag},
	}
}

// AddType appends a category tag unless it is already present. Append order
// is preserved; storage keeps the list as-is.
func (e *Event) AddType(tag string) {
	if tag == "" {
		return
	}
	for _, t := range e.Type {
		if t == tag {
			return
		}
	}
	e.Type = append(e.Type, tag)
}

// PrimaryType returns the first category tag, which by construction is the
// domain tag for every normalized event.
func (e *Event) PrimaryType() string {
	if len(e.Type) == 0 {
		return ""
	}
	return e.Type[0]
}
