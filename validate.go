package oppex

import (
	"github.com/kmezzour/oppex/scraper"
)

// IsValidItem decides whether an extracted item is complete enough to
// surface. With no required fields, any single non-empty value qualifies --
// that rule exists to keep fully blank rows out of previews. With required
// fields, every one of them must carry a non-empty trimmed value: partial
// satisfaction is failure, not partial success.
func IsValidItem(item ExtractedItem, fields []scraper.FieldMapping) bool {
	required := scraper.RequiredNames(fields)

	if len(required) == 0 {
		for _, name := range scraper.FieldNames(fields) {
			if item.Get(name) != "" {
				return true
			}
		}
		return false
	}

	for _, name := range required {
		if item.Get(name) == "" {
			return false
		}
	}
	return true
}

// ValidItems filters items through IsValidItem and also reports how many
// were hidden, which the preview surface shows alongside the survivors.
func ValidItems(items []ExtractedItem, fields []scraper.FieldMapping) (valid []ExtractedItem, hidden int) {
	for _, item := range items {
		if IsValidItem(item, fields) {
			valid = append(valid, item)
		} else {
			hidden++
		}
	}
	return valid, hidden
}
