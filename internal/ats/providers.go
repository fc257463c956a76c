package ats

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Provider identifiers accepted by the backend.
const (
	ProviderGreenhouse = "greenhouse"
	ProviderLever      = "lever"
	ProviderWorkable   = "workable"
	ProviderBambooHR   = "bamboohr"
	ProviderAshby      = "ashby"
	ProviderSmartRec   = "smartrecruiters"
)

// displayNames maps provider ids whose brand spelling differs from a
// plain title-cased id.
var displayNames = map[string]string{
	ProviderBambooHR: "BambooHR",
	ProviderSmartRec: "SmartRecruiters",
}

var knownProviders = []string{
	ProviderGreenhouse,
	ProviderLever,
	ProviderWorkable,
	ProviderBambooHR,
	ProviderAshby,
	ProviderSmartRec,
}

var titleCaser = cases.Title(language.English)

// ProviderDisplayName returns the human-facing name for a provider id.
// Unknown ids are title-cased rather than rejected so a newly added
// backend provider still renders.
func ProviderDisplayName(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if name, ok := displayNames[id]; ok {
		return name
	}
	return titleCaser.String(id)
}

// KnownProvider reports whether the id is one the gateway recognises.
func KnownProvider(id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range knownProviders {
		if p == id {
			return true
		}
	}
	return false
}

// Providers lists the recognised provider ids, sorted.
func Providers() []string {
	out := make([]string, len(knownProviders))
	copy(out, knownProviders)
	sort.Strings(out)
	return out
}
