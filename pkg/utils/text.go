package utils

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// tagSeparator splits free-text tag cells the way the diary sheet is filled in:
// commas, semicolons, or runs of two or more spaces.
var tagSeparator = regexp.MustCompile(`[,;]\s*|\s\s+`)

// CanonicalItemID normalizes a food/component name so spreadsheet headers,
// catalog entries and form selections compare equal ("  batata  doce" -> "BATATA DOCE").
func CanonicalItemID(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	if collapsed == "" {
		return ""
	}
	return cases.Upper(language.Und).String(collapsed)
}

// FoldTag trims and case-folds a single symptom or medication tag.
func FoldTag(tag string) string {
	trimmed := strings.TrimSpace(tag)
	if trimmed == "" {
		return ""
	}
	return cases.Fold().String(trimmed)
}

// SplitTags splits a raw tag cell into a sorted, de-duplicated set of folded tags.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, part := range tagSeparator.Split(raw, -1) {
		tag := FoldTag(part)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	if len(tags) == 0 {
		return nil
	}
	sort.Strings(tags)
	return tags
}

// JoinTags renders tags back into the comma separated form stored in the sheet.
func JoinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return strings.Join(cleaned, ", ")
}
