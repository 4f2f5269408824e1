package survey

import (
	"fmt"
	"strings"
)

// PageTag is the closed set of questionnaire page types the classifier can recognize.
type PageTag int

const (
	// TagUnknown is the default when no rule matches.
	TagUnknown PageTag = iota
	TagAge
	TagDateTime
	TagOrderMode
	TagPlace
	TagPickup
	TagDelivery
	TagSatisfaction
	TagExact
	TagProblem
	TagImprove
	// TagComplete is the terminal thank-you page.
	TagComplete
)

var tagNames = map[PageTag]string{
	TagUnknown:      "unknown",
	TagAge:          "age",
	TagDateTime:     "datetime",
	TagOrderMode:    "ordermode",
	TagPlace:        "place",
	TagPickup:       "pickup",
	TagDelivery:     "delivery",
	TagSatisfaction: "satisfaction",
	TagExact:        "exact",
	TagProblem:      "problem",
	TagImprove:      "improve",
	TagComplete:     "complete",
}

// AllTags lists every tag, Unknown last.
var AllTags = []PageTag{
	TagAge, TagDateTime, TagOrderMode, TagPlace, TagPickup, TagDelivery,
	TagSatisfaction, TagExact, TagProblem, TagImprove, TagComplete, TagUnknown,
}

func (t PageTag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PageTag(%d)", int(t))
}

// MarshalText renders the tag by name so reports stay readable.
func (t PageTag) MarshalText() ([]byte, error) {
	if _, ok := tagNames[t]; !ok {
		return nil, fmt.Errorf("invalid page tag %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (t *PageTag) UnmarshalText(b []byte) error {
	tag, err := ParsePageTag(string(b))
	if err != nil {
		return err
	}
	*t = tag
	return nil
}

// ParsePageTag resolves a tag name, case-insensitively.
func ParsePageTag(name string) (PageTag, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for tag, n := range tagNames {
		if n == needle {
			return tag, nil
		}
	}
	return TagUnknown, fmt.Errorf("unknown page tag %q", name)
}
