package record

import (
	"fmt"
	"strconv"
	"strings"
)

// Column names of the durable table, in canonical order.
const (
	ColSerialNo           = "serial_no"
	ColName               = "name"
	ColEmail              = "email"
	ColAge                = "age"
	ColGender             = "gender"
	ColAddress            = "address"
	ColPhone              = "phone"
	ColAadharNo           = "aadhar_no"
	ColOccupation         = "occupation"
	ColSymptoms           = "symptoms"
	ColTreatment          = "treatment"
	ColStartDate          = "start_date"
	ColEndDate            = "end_date"
	ColPhotoRef           = "photo_reference"
	ColSatisfied          = "satisfied"
	ColDuplicateDismissed = "duplicate_dismissed"
)

// Columns is the full column set, in canonical order.
var Columns = []string{
	ColSerialNo, ColName, ColEmail, ColAge, ColGender, ColAddress, ColPhone,
	ColAadharNo, ColOccupation, ColSymptoms, ColTreatment, ColStartDate,
	ColEndDate, ColPhotoRef, ColSatisfied, ColDuplicateDismissed,
}

// columnAliases maps legacy spreadsheet headers (lower-cased) to columns.
var columnAliases = map[string]string{
	"serialno":           ColSerialNo,
	"serial":             ColSerialNo,
	"photopath":          ColPhotoRef,
	"photo":              ColPhotoRef,
	"phoneno":            ColPhone,
	"phone_no":           ColPhone,
	"aadharno":           ColAadharNo,
	"aadhaar_no":         ColAadharNo,
	"startdate":          ColStartDate,
	"enddate":            ColEndDate,
	"duplicatedismissed": ColDuplicateDismissed,
}

// CanonicalColumn resolves a header to a column name. It accepts canonical
// names and legacy headers such as "SerialNo" or "PhoneNo", ignoring case and
// surrounding space. ok is false for unknown headers.
func CanonicalColumn(header string) (col string, ok bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, c := range Columns {
		if h == c {
			return c, true
		}
	}
	col, ok = columnAliases[h]
	return col, ok
}

// Cells returns p's values as text in canonical column order.
func (p Patient) Cells() []string {
	age := ""
	if p.Age != nil {
		age = strconv.Itoa(*p.Age)
	}
	return []string{
		strconv.FormatInt(p.SerialNo, 10),
		p.Name,
		p.Email,
		age,
		string(p.Gender),
		p.Address,
		p.Phone,
		p.AadharNo,
		p.Occupation,
		p.Symptoms,
		p.Treatment,
		p.StartDate.String(),
		p.EndDate.String(),
		p.PhotoRef,
		string(p.Satisfied),
		strconv.FormatBool(p.DuplicateDismissed),
	}
}

// FromCells builds a Patient from text cells keyed by column name. Missing
// columns take their zero value.
func FromCells(cells map[string]string) (Patient, error) {
	var p Patient
	var err error

	if s := strings.TrimSpace(cells[ColSerialNo]); s != "" {
		p.SerialNo, err = parseSerial(s)
		if err != nil {
			return Patient{}, err
		}
	}
	if s := strings.TrimSpace(cells[ColAge]); s != "" {
		age, err := parseWholeNumber(s)
		if err != nil {
			return Patient{}, fmt.Errorf("%s: %w", ColAge, err)
		}
		p.Age = &age
	}
	if p.Gender, err = ParseGender(cells[ColGender]); err != nil {
		return Patient{}, fmt.Errorf("%s: %w", ColGender, err)
	}
	if p.Satisfied, err = ParseSatisfaction(cells[ColSatisfied]); err != nil {
		return Patient{}, fmt.Errorf("%s: %w", ColSatisfied, err)
	}
	if p.StartDate, err = ParseDate(cells[ColStartDate]); err != nil {
		return Patient{}, fmt.Errorf("%s: %w", ColStartDate, err)
	}
	if p.EndDate, err = ParseDate(cells[ColEndDate]); err != nil {
		return Patient{}, fmt.Errorf("%s: %w", ColEndDate, err)
	}
	if s := strings.TrimSpace(cells[ColDuplicateDismissed]); s != "" {
		if p.DuplicateDismissed, err = strconv.ParseBool(s); err != nil {
			return Patient{}, fmt.Errorf("%s: invalid boolean %q", ColDuplicateDismissed, s)
		}
	}

	p.Name = strings.TrimSpace(cells[ColName])
	p.Email = strings.TrimSpace(cells[ColEmail])
	p.Address = strings.TrimSpace(cells[ColAddress])
	p.Phone = strings.TrimSpace(cells[ColPhone])
	p.AadharNo = strings.TrimSpace(cells[ColAadharNo])
	p.Occupation = strings.TrimSpace(cells[ColOccupation])
	p.Symptoms = strings.TrimSpace(cells[ColSymptoms])
	p.Treatment = strings.TrimSpace(cells[ColTreatment])
	p.PhotoRef = strings.TrimSpace(cells[ColPhotoRef])

	if err := p.Validate(); err != nil {
		return Patient{}, err
	}
	return p, nil
}

// ParseSerial parses a positive serial number.
func ParseSerial(s string) (int64, error) {
	n, err := parseSerial(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%s: must be positive", ColSerialNo)
	}
	return n, nil
}

func parseSerial(s string) (int64, error) {
	n, err := parseWholeNumber(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ColSerialNo, err)
	}
	return int64(n), nil
}

// parseWholeNumber accepts "42" and the "42.0" form spreadsheets produce.
func parseWholeNumber(s string) (int, error) {
	s = strings.TrimSuffix(s, ".0")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative, got %d", n)
	}
	return n, nil
}
