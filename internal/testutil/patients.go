package testutil

import (
	"time"

	"github.com/roach88/patientbook/internal/record"
)

// PatientOption customizes a fixture built by NewPatient.
type PatientOption func(*record.Patient)

// NewPatient builds a minimal valid patient. Fields not set through opts are
// empty, the gender is Unspecified and the age is unset.
func NewPatient(serial int64, name string, opts ...PatientOption) record.Patient {
	p := record.Patient{
		SerialNo: serial,
		Name:     name,
		Gender:   record.GenderUnspecified,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func WithAge(age int) PatientOption {
	return func(p *record.Patient) { p.Age = &age }
}

func WithGender(g record.Gender) PatientOption {
	return func(p *record.Patient) { p.Gender = g }
}

func WithEmail(email string) PatientOption {
	return func(p *record.Patient) { p.Email = email }
}

func WithPhone(phone string) PatientOption {
	return func(p *record.Patient) { p.Phone = phone }
}

func WithAadhar(aadhar string) PatientOption {
	return func(p *record.Patient) { p.AadharNo = aadhar }
}

func WithSymptoms(symptoms string) PatientOption {
	return func(p *record.Patient) { p.Symptoms = symptoms }
}

func WithTreatment(treatment string) PatientOption {
	return func(p *record.Patient) { p.Treatment = treatment }
}

func WithOccupation(occupation string) PatientOption {
	return func(p *record.Patient) { p.Occupation = occupation }
}

func WithAddress(address string) PatientOption {
	return func(p *record.Patient) { p.Address = address }
}

func WithPhoto(ref string) PatientOption {
	return func(p *record.Patient) { p.PhotoRef = ref }
}

func WithSatisfied(s record.Satisfaction) PatientOption {
	return func(p *record.Patient) { p.Satisfied = s }
}

// WithDates sets start and end dates given as YYYY-MM-DD. Empty means unset.
// It panics on malformed input.
func WithDates(start, end string) PatientOption {
	return func(p *record.Patient) {
		p.StartDate = mustDate(start)
		p.EndDate = mustDate(end)
	}
}

// Dismissed marks the fixture as reviewed and not a duplicate.
func Dismissed() PatientOption {
	return func(p *record.Patient) { p.DuplicateDismissed = true }
}

func mustDate(s string) record.Date {
	d, err := record.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// SamplePatients returns a small clinic roster used by golden tests.
//
// Ravi Kumar (2) and "ravi  kumar" (5) share a name; Meena Iyer (3) and
// Meena Pillai (6) share a phone number. Serial 7 is dismissed.
func SamplePatients() []record.Patient {
	return []record.Patient{
		NewPatient(1, "Asha Rao",
			WithAge(34), WithGender(record.GenderFemale),
			WithEmail("asha@example.com"), WithPhone("98450 00001"),
			WithSymptoms("Knee pain"), WithTreatment("Physiotherapy"),
			WithOccupation("Engineer"), WithDates("2024-01-10", "2024-02-09"),
			WithSatisfied(record.SatisfactionYes)),
		NewPatient(2, "Ravi Kumar",
			WithAge(52), WithGender(record.GenderMale),
			WithEmail("ravi@example.com"), WithPhone("98450 00002"),
			WithSymptoms("Back pain"), WithTreatment("Rest"),
			WithOccupation("Teacher"), WithDates("2024-02-01", "")),
		NewPatient(3, "Meena Iyer",
			WithAge(41), WithGender(record.GenderFemale),
			WithPhone("+91 98450 00003"), WithSymptoms("Knee pain"),
			WithTreatment("Surgery"), WithDates("2023-11-20", "2023-12-20"),
			WithSatisfied(record.SatisfactionNotSure)),
		NewPatient(4, "Kiran Shah",
			WithGender(record.GenderOther), WithEmail("kiran@example.com"),
			WithSymptoms("Migraine"), WithPhoto("photos/patient_4.png")),
		NewPatient(5, "ravi  kumar",
			WithAge(52), WithGender(record.GenderMale),
			WithSymptoms("Back pain")),
		NewPatient(6, "Meena Pillai",
			WithAge(29), WithGender(record.GenderFemale),
			WithPhone("919845000003"), WithSymptoms("Fever")),
		NewPatient(7, "Asha Rao",
			WithAge(60), WithGender(record.GenderFemale), Dismissed()),
	}
}

// Date is a shorthand for record.NewDate in table-driven tests.
func Date(year int, month time.Month, day int) record.Date {
	return record.NewDate(year, month, day)
}
