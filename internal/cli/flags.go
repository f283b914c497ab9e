package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/patientbook/internal/query"
	"github.com/roach88/patientbook/internal/record"
)

// patientFlags are the per-field flags shared by add and edit.
type patientFlags struct {
	Name       string
	Email      string
	Age        int
	Gender     string
	Address    string
	Phone      string
	Aadhar     string
	Occupation string
	Symptoms   string
	Treatment  string
	StartDate  string
	EndDate    string
	Satisfied  string
}

func (pf *patientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&pf.Name, "name", "", "patient name")
	cmd.Flags().StringVar(&pf.Email, "email", "", "email address")
	cmd.Flags().IntVar(&pf.Age, "age", 0, "age in years")
	cmd.Flags().StringVar(&pf.Gender, "gender", "", "Male, Female, Other or Unspecified")
	cmd.Flags().StringVar(&pf.Address, "address", "", "postal address")
	cmd.Flags().StringVar(&pf.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&pf.Aadhar, "aadhar", "", "Aadhar number")
	cmd.Flags().StringVar(&pf.Occupation, "occupation", "", "occupation")
	cmd.Flags().StringVar(&pf.Symptoms, "symptoms", "", "presenting symptoms")
	cmd.Flags().StringVar(&pf.Treatment, "treatment", "", "treatment given")
	cmd.Flags().StringVar(&pf.StartDate, "start", "", "treatment start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&pf.EndDate, "end", "", "treatment end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&pf.Satisfied, "satisfied", "", "Yes, No or Not Sure")
}

// patch returns a patch holding only the flags set on the command line.
func (pf *patientFlags) patch(cmd *cobra.Command) (record.Patch, error) {
	var pt record.Patch
	changed := cmd.Flags().Changed

	str := func(flag, v string) *string {
		if !changed(flag) {
			return nil
		}
		s := strings.TrimSpace(v)
		return &s
	}
	pt.Name = str("name", pf.Name)
	pt.Email = str("email", pf.Email)
	pt.Address = str("address", pf.Address)
	pt.Phone = str("phone", pf.Phone)
	pt.AadharNo = str("aadhar", pf.Aadhar)
	pt.Occupation = str("occupation", pf.Occupation)
	pt.Symptoms = str("symptoms", pf.Symptoms)
	pt.Treatment = str("treatment", pf.Treatment)

	if changed("age") {
		if pf.Age < 0 {
			return record.Patch{}, usageErrorf("--age must not be negative, got %d", pf.Age)
		}
		pt.Age = record.SetAge(pf.Age)
	}
	if changed("gender") {
		g, err := record.ParseGender(pf.Gender)
		if err != nil {
			return record.Patch{}, usageErrorf("--gender: %v", err)
		}
		pt.Gender = &g
	}
	if changed("satisfied") {
		s, err := record.ParseSatisfaction(pf.Satisfied)
		if err != nil {
			return record.Patch{}, usageErrorf("--satisfied: %v", err)
		}
		pt.Satisfied = &s
	}
	if changed("start") {
		d, err := record.ParseDate(pf.StartDate)
		if err != nil {
			return record.Patch{}, usageErrorf("--start: %v", err)
		}
		pt.StartDate = &d
	}
	if changed("end") {
		d, err := record.ParseDate(pf.EndDate)
		if err != nil {
			return record.Patch{}, usageErrorf("--end: %v", err)
		}
		pt.EndDate = &d
	}
	return pt, nil
}

// queryFlags select records for list, export and stats.
type queryFlags struct {
	Search    string
	Sort      string
	Desc      bool
	Gender    string
	Satisfied string
	MinAge    int
	MaxAge    int
	From      string
	To        string
	HasPhoto  bool
	Dismissed bool
}

func (qf *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&qf.Search, "search", "s", "", "case-insensitive text search")
	cmd.Flags().StringVar(&qf.Sort, "sort", "serial_no", "sort column")
	cmd.Flags().BoolVar(&qf.Desc, "desc", false, "sort descending")
	cmd.Flags().StringVar(&qf.Gender, "gender", "", "only this gender")
	cmd.Flags().StringVar(&qf.Satisfied, "satisfied", "", "only this satisfaction")
	cmd.Flags().IntVar(&qf.MinAge, "min-age", 0, "minimum age")
	cmd.Flags().IntVar(&qf.MaxAge, "max-age", 0, "maximum age")
	cmd.Flags().StringVar(&qf.From, "from", "", "earliest start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&qf.To, "to", "", "latest start date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&qf.HasPhoto, "has-photo", false, "only records with (or, =false, without) a photo")
	cmd.Flags().BoolVar(&qf.Dismissed, "dismissed", false, "only records marked (or, =false, not marked) as not duplicates")
}

// build turns the flags set on the command line into a query.
func (qf *queryFlags) build(cmd *cobra.Command) (query.Query, error) {
	changed := cmd.Flags().Changed

	key, err := query.ParseSortKey(qf.Sort)
	if err != nil {
		return query.Query{}, usageErrorf("--sort: %v", err)
	}
	q := query.Query{
		Text:       qf.Search,
		SortBy:     key,
		Descending: qf.Desc,
	}

	f := &q.Filter
	if changed("gender") {
		g, err := record.ParseGender(qf.Gender)
		if err != nil {
			return query.Query{}, usageErrorf("--gender: %v", err)
		}
		f.Gender = &g
	}
	if changed("satisfied") {
		s, err := record.ParseSatisfaction(qf.Satisfied)
		if err != nil {
			return query.Query{}, usageErrorf("--satisfied: %v", err)
		}
		f.Satisfied = &s
	}
	if changed("min-age") {
		f.MinAge = record.Ptr(qf.MinAge)
	}
	if changed("max-age") {
		f.MaxAge = record.Ptr(qf.MaxAge)
	}
	if changed("from") {
		if f.StartFrom, err = record.ParseDate(qf.From); err != nil {
			return query.Query{}, usageErrorf("--from: %v", err)
		}
	}
	if changed("to") {
		if f.StartTo, err = record.ParseDate(qf.To); err != nil {
			return query.Query{}, usageErrorf("--to: %v", err)
		}
	}
	if changed("has-photo") {
		f.HasPhoto = record.Ptr(qf.HasPhoto)
	}
	if changed("dismissed") {
		f.Dismissed = record.Ptr(qf.Dismissed)
	}
	return q, nil
}

// parseSerials parses serial number arguments.
func parseSerials(args []string) ([]int64, error) {
	serials := make([]int64, 0, len(args))
	for _, arg := range args {
		n, err := record.ParseSerial(arg)
		if err != nil {
			return nil, usageErrorf("serial number %q: %v", arg, err)
		}
		serials = append(serials, n)
	}
	return serials, nil
}

// orDash renders an empty value as "-".
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatAge renders an optional age.
func formatAge(age *int) string {
	if age == nil {
		return "-"
	}
	return strconv.Itoa(*age)
}
