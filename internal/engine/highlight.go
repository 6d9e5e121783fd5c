package engine

import "regexp"

// highlightFields wraps every occurrence of each query keyword inside the
// document's field values with <mark> tags, case-insensitively. Fields
// without a match are omitted.
func highlightFields(fields SearchableFields, queryKeywords []string) map[string]string {
	if len(queryKeywords) == 0 {
		return nil
	}
	patterns := make([]*regexp.Regexp, 0, len(queryKeywords))
	for _, kw := range queryKeywords {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(kw)))
	}

	highlights := make(map[string]string)
	for _, name := range fieldNames {
		value := fields.Value(name)
		if value == "" {
			continue
		}
		marked := value
		matched := false
		for _, re := range patterns {
			if !re.MatchString(marked) {
				continue
			}
			matched = true
			marked = re.ReplaceAllString(marked, "<mark>$0</mark>")
		}
		if matched {
			highlights[name] = marked
		}
	}
	if len(highlights) == 0 {
		return nil
	}
	return highlights
}
