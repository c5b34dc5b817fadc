package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MarkitIt/markitit-xc475/internal/store"
)

// SortOrder represents the available sorting options for check output
type SortOrder string

const (
	SortByName SortOrder = "name"
	SortByCity SortOrder = "city"
	SortByDate SortOrder = "date"
)

func parseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(s))
	switch order {
	case SortByName, SortByCity, SortByDate:
		return order, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'name', 'city', or 'date')", s)
	}
}

// sortDocuments sorts stored events for listing. Dates are verbatim site
// text, so date ordering is lexical with name as the tie-breaker.
func sortDocuments(docs []store.Document, order SortOrder) {
	switch order {
	case SortByCity:
		sort.Slice(docs, func(i, j int) bool {
			ci, cj := docs[i].Event.Location.City, docs[j].Event.Location.City
			if ci != cj {
				return ci < cj
			}
			return compareByName(docs[i], docs[j])
		})
	case SortByDate:
		sort.Slice(docs, func(i, j int) bool {
			di, dj := docs[i].Event.Date, docs[j].Event.Date
			if di != dj {
				return di < dj
			}
			return compareByName(docs[i], docs[j])
		})
	default:
		sort.Slice(docs, func(i, j int) bool {
			return compareByName(docs[i], docs[j])
		})
	}
}

func compareByName(i, j store.Document) bool {
	ni := strings.ToLower(i.Event.Name)
	nj := strings.ToLower(j.Event.Name)
	if ni != nj {
		return ni < nj
	}
	return i.ID < j.ID
}
