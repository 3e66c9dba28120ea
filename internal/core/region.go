package core

import (
	"fmt"
	"strings"
)

// ResolveRegion maps a locale hint such as "en-GB" to a region. Unknown or
// empty hints fall back to DefaultRegion.
func ResolveRegion(hint string) Region {
	if hint == "" {
		return DefaultRegion
	}
	if r, ok := localeRegions[hint]; ok {
		return r
	}
	primary, _, _ := strings.Cut(hint, "-")
	if r, ok := localeRegions[primary]; ok {
		return r
	}
	return DefaultRegion
}

// ParseRegion validates user input against the enumerated regions.
func ParseRegion(s string) (Region, error) {
	s = strings.TrimSpace(s)
	for _, r := range Regions {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRegion, s)
}

func (r Region) Valid() bool {
	_, err := ParseRegion(string(r))
	return err == nil
}

// RegionNames returns the regions joined for prompts.
func RegionNames() string {
	names := make([]string, len(Regions))
	for i, r := range Regions {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
