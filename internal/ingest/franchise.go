package ingest

import (
	"strings"

	"github.com/cinesense/cinesense/internal/models"
	"github.com/cinesense/cinesense/pkg/utils"
)

// BaseTitle strips the subtitle portion of a title: everything from the
// first ':', '-', en dash, or '(' onward. "The Dark Knight Rises" keeps its
// full title; "Mission: Impossible - Fallout" reduces to "mission". The
// result is normalized for grouping.
func BaseTitle(title string) string {
	if i := strings.IndexAny(title, ":-(–"); i >= 0 {
		title = title[:i]
	}
	return utils.NormalizeTitle(title)
}

// deriveFranchiseKeys assigns a franchise key to every keyless item whose
// (type, base title) group contains at least two members. Singleton groups
// get no key, so the ranking boost never fires for them. Keys carried in the
// dump are authoritative and never overwritten.
func deriveFranchiseKeys(items []*models.CatalogItem) {
	type group struct {
		ct   models.ContentType
		base string
	}
	counts := make(map[group]int, len(items))
	for _, it := range items {
		if it.FranchiseKey != "" {
			continue
		}
		base := BaseTitle(it.Title)
		if base == "" {
			continue
		}
		counts[group{it.Type, base}]++
	}
	for _, it := range items {
		if it.FranchiseKey != "" {
			continue
		}
		if base := BaseTitle(it.Title); base != "" && counts[group{it.Type, base}] >= 2 {
			it.FranchiseKey = string(it.Type) + ":" + base
		}
	}
}
