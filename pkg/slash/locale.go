package slash

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLocale rewrites a declared locale tag into its wire form by
// replacing every underscore with a hyphen ("pl_PL" -> "pl-PL").
func NormalizeLocale(tag string) string {
	return strings.ReplaceAll(tag, "_", "-")
}

// localizations returns a fresh map with normalised tags, or nil when empty.
func localizations(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for tag, text := range m {
		out[NormalizeLocale(tag)] = text
	}
	return out
}

func checkLocales(path string, m map[string]string) []error {
	if len(m) == 0 {
		return nil
	}
	tags := make([]string, 0, len(m))
	for tag := range m {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var errs []error
	seen := make(map[string]string, len(m))
	for _, tag := range tags {
		norm := NormalizeLocale(tag)
		if norm == "" {
			errs = append(errs, &SchemaError{Path: path, Reason: "empty locale tag"})
			continue
		}
		if _, err := language.Parse(norm); err != nil {
			errs = append(errs, &SchemaError{Path: path, Reason: fmt.Sprintf("malformed locale tag %q: %v", tag, err)})
			continue
		}
		if prev, dup := seen[norm]; dup {
			errs = append(errs, &SchemaError{Path: path, Reason: fmt.Sprintf("locale tags %q and %q both normalise to %q", prev, tag, norm)})
			continue
		}
		seen[norm] = tag
		if strings.TrimSpace(m[tag]) == "" {
			errs = append(errs, &SchemaError{Path: path, Reason: fmt.Sprintf("empty localized text for %q", tag)})
		}
	}
	return errs
}
