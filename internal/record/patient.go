package record

import (
	"fmt"
	"strings"
	"time"
)

// Gender is the enumerated patient gender.
type Gender string

const (
	GenderMale        Gender = "Male"
	GenderFemale      Gender = "Female"
	GenderOther       Gender = "Other"
	GenderUnspecified Gender = "Unspecified"
)

// Genders lists every valid gender in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther, GenderUnspecified}

// ParseGender parses a gender case-insensitively. Empty text is Unspecified.
func ParseGender(s string) (Gender, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return GenderUnspecified, nil
	}
	for _, g := range Genders {
		if strings.EqualFold(s, string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// Valid reports whether g is one of the enumerated genders.
func (g Gender) Valid() bool {
	for _, v := range Genders {
		if g == v {
			return true
		}
	}
	return false
}

// Satisfaction records whether the patient was satisfied with treatment.
type Satisfaction string

const (
	SatisfactionUnset   Satisfaction = ""
	SatisfactionYes     Satisfaction = "Yes"
	SatisfactionNo      Satisfaction = "No"
	SatisfactionNotSure Satisfaction = "Not Sure"
)

// ParseSatisfaction parses a satisfaction value case-insensitively.
// "notsure" and "not_sure" are accepted for Not Sure.
func ParseSatisfaction(s string) (Satisfaction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SatisfactionUnset, nil
	case "yes":
		return SatisfactionYes, nil
	case "no":
		return SatisfactionNo, nil
	case "not sure", "notsure", "not_sure", "not-sure":
		return SatisfactionNotSure, nil
	}
	return "", fmt.Errorf("unknown satisfaction %q", s)
}

// Valid reports whether s is a known satisfaction value (unset included).
func (s Satisfaction) Valid() bool {
	switch s {
	case SatisfactionUnset, SatisfactionYes, SatisfactionNo, SatisfactionNotSure:
		return true
	}
	return false
}

// DateLayout is the wire format of Date.
const DateLayout = "2006-01-02"

// Date is a civil date. The zero value means unset.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the civil date for year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the civil date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD date. Empty text is the zero Date.
// A trailing time component (as written by spreadsheet tools) is ignored.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if len(s) > len(DateLayout) && (s[len(DateLayout)] == ' ' || s[len(DateLayout)] == 'T') {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// IsZero reports whether d is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats d as YYYY-MM-DD, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DateLayout)
}

// Compare returns -1, 0 or +1 ordering d against o chronologically.
func (d Date) Compare(o Date) int {
	return d.Time().Compare(o.Time())
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Patient is one stored patient record.
type Patient struct {
	SerialNo           int64        `json:"serial_no"`
	Name               string       `json:"name"`
	Email              string       `json:"email"`
	Age                *int         `json:"age"`
	Gender             Gender       `json:"gender"`
	Address            string       `json:"address"`
	Phone              string       `json:"phone"`
	AadharNo           string       `json:"aadhar_no"`
	Occupation         string       `json:"occupation"`
	Symptoms           string       `json:"symptoms"`
	Treatment          string       `json:"treatment"`
	StartDate          Date         `json:"start_date"`
	EndDate            Date         `json:"end_date"`
	PhotoRef           string       `json:"photo_reference"`
	Satisfied          Satisfaction `json:"satisfied"`
	DuplicateDismissed bool         `json:"duplicate_dismissed"`
}

// Clone returns a deep copy of p.
func (p Patient) Clone() Patient {
	if p.Age != nil {
		age := *p.Age
		p.Age = &age
	}
	return p
}

// Validate checks the typed invariants of a record. Required fields are a
// presentation concern and are not checked here.
func (p Patient) Validate() error {
	if p.SerialNo < 0 {
		return NewInvalidRecordError(p.SerialNo, "serial number must be positive")
	}
	if p.Age != nil && *p.Age < 0 {
		return NewInvalidRecordError(p.SerialNo, fmt.Sprintf("age must not be negative, got %d", *p.Age))
	}
	if !p.Gender.Valid() {
		return NewInvalidRecordError(p.SerialNo, fmt.Sprintf("unknown gender %q", p.Gender))
	}
	if !p.Satisfied.Valid() {
		return NewInvalidRecordError(p.SerialNo, fmt.Sprintf("unknown satisfaction %q", p.Satisfied))
	}
	return nil
}

// Normalize fills the zero gender with Unspecified.
func (p Patient) Normalize() Patient {
	if p.Gender == "" {
		p.Gender = GenderUnspecified
	}
	return p
}

// Patch is a partial update. Nil fields are left unchanged; the serial
// number cannot be patched.
type Patch struct {
	Name               *string
	Email              *string
	Age                **int
	Gender             *Gender
	Address            *string
	Phone              *string
	AadharNo           *string
	Occupation         *string
	Symptoms           *string
	Treatment          *string
	StartDate          *Date
	EndDate            *Date
	PhotoRef           *string
	Satisfied          *Satisfaction
	DuplicateDismissed *bool
}

// SetAge returns a patch value that sets the age.
func SetAge(age int) **int {
	p := &age
	return &p
}

// ClearAge returns a patch value that unsets the age.
func ClearAge() **int {
	var p *int
	return &p
}

// IsEmpty reports whether the patch changes nothing.
func (pt Patch) IsEmpty() bool {
	return pt == Patch{}
}

// Apply returns p with the patch applied.
func (pt Patch) Apply(p Patient) Patient {
	out := p.Clone()
	setString(&out.Name, pt.Name)
	setString(&out.Email, pt.Email)
	if pt.Age != nil {
		if *pt.Age == nil {
			out.Age = nil
		} else {
			age := **pt.Age
			out.Age = &age
		}
	}
	if pt.Gender != nil {
		out.Gender = *pt.Gender
	}
	setString(&out.Address, pt.Address)
	setString(&out.Phone, pt.Phone)
	setString(&out.AadharNo, pt.AadharNo)
	setString(&out.Occupation, pt.Occupation)
	setString(&out.Symptoms, pt.Symptoms)
	setString(&out.Treatment, pt.Treatment)
	if pt.StartDate != nil {
		out.StartDate = *pt.StartDate
	}
	if pt.EndDate != nil {
		out.EndDate = *pt.EndDate
	}
	setString(&out.PhotoRef, pt.PhotoRef)
	if pt.Satisfied != nil {
		out.Satisfied = *pt.Satisfied
	}
	if pt.DuplicateDismissed != nil {
		out.DuplicateDismissed = *pt.DuplicateDismissed
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v. Handy for building patches and ages.
func Ptr[T any](v T) *T {
	return &v
}
