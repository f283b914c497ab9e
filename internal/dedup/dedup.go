package dedup

import (
	"cmp"
	"slices"

	"github.com/roach88/patientbook/internal/record"
)

// Key names the kind of field that linked records into a group.
type Key string

const (
	KeyName   Key = "name"
	KeyEmail  Key = "email"
	KeyPhone  Key = "phone"
	KeyAadhar Key = "aadhar"
	KeySerial Key = "serial"
)

// keyOrder fixes the order keys are reported in.
var keyOrder = []Key{KeySerial, KeyName, KeyEmail, KeyPhone, KeyAadhar}

// Group is a set of two or more records believed to be the same person.
type Group struct {
	// Records are ordered by serial number, then table order.
	Records []record.Patient `json:"records"`
	// Keys lists the kinds of field that linked the group.
	Keys []Key `json:"keys"`
}

// Serials returns the serial numbers of the group's records in order.
func (g Group) Serials() []int64 {
	out := make([]int64, len(g.Records))
	for i, p := range g.Records {
		out[i] = p.SerialNo
	}
	return out
}

type edge struct {
	a, b int
	key  Key
}

// extractor returns the normalized value of one linking field, or "" when
// the field does not take part in matching.
type extractor struct {
	key Key
	get func(record.Patient) string
}

var extractors = []extractor{
	{KeyName, func(p record.Patient) string { return NormalizeName(p.Name) }},
	{KeyEmail, func(p record.Patient) string { return NormalizeEmail(p.Email) }},
	{KeyPhone, func(p record.Patient) string { return NormalizePhone(p.Phone) }},
	{KeyAadhar, func(p record.Patient) string { return NormalizeAadhar(p.AadharNo) }},
}

// FindGroups returns the duplicate groups among records.
//
// Groups are ordered by their smallest serial number. Singletons are not
// reported. The input is not modified.
func FindGroups(records []record.Patient) []Group {
	uf := newUnionFind(len(records))
	var edges []edge

	link := func(seen map[string]int, value string, i int, key Key) {
		if value == "" {
			return
		}
		if j, ok := seen[value]; ok {
			uf.union(j, i)
			edges = append(edges, edge{a: j, b: i, key: key})
			return
		}
		seen[value] = i
	}

	serials := make(map[int64]int, len(records))
	for i, p := range records {
		if j, ok := serials[p.SerialNo]; ok {
			uf.union(j, i)
			edges = append(edges, edge{a: j, b: i, key: KeySerial})
			continue
		}
		serials[p.SerialNo] = i
	}

	for _, ex := range extractors {
		seen := make(map[string]int)
		for i, p := range records {
			if p.DuplicateDismissed {
				continue
			}
			link(seen, ex.get(p), i, ex.key)
		}
	}

	members := make(map[int][]int)
	for i := range records {
		root := uf.find(i)
		members[root] = append(members[root], i)
	}

	keys := make(map[int]map[Key]bool)
	for _, e := range edges {
		root := uf.find(e.a)
		if keys[root] == nil {
			keys[root] = make(map[Key]bool)
		}
		keys[root][e.key] = true
	}

	var groups []Group
	for root, idx := range members {
		if len(idx) < 2 {
			continue
		}
		slices.SortStableFunc(idx, func(a, b int) int {
			if c := cmp.Compare(records[a].SerialNo, records[b].SerialNo); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})

		g := Group{Records: make([]record.Patient, len(idx))}
		for i, pos := range idx {
			g.Records[i] = records[pos].Clone()
		}
		for _, k := range keyOrder {
			if keys[root][k] {
				g.Keys = append(g.Keys, k)
			}
		}
		groups = append(groups, g)
	}

	slices.SortFunc(groups, func(a, b Group) int {
		return cmp.Compare(a.Records[0].SerialNo, b.Records[0].SerialNo)
	})
	return groups
}
