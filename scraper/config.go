package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Rule defines how to pull the photo URL out of a source page: a CSS
// selector for the candidate elements and the attribute holding the URL.
type Rule struct {
	Selector  string `yaml:"selector"`
	Attribute string `yaml:"attribute"`
}

// NewImageRule creates a rule that reads the src attribute of the elements
// matched by selector.
func NewImageRule(selector string) Rule {
	return Rule{
		Selector:  selector,
		Attribute: "src",
	}
}

// Extract returns the attribute value of the first matched element that
// carries a non-empty attribute. The boolean is false when nothing matched.
func (r Rule) Extract(doc *goquery.Document) (string, bool) {
	var value string
	found := false

	doc.Find(r.Selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		attr, ok := s.Attr(r.Attribute)
		attr = strings.TrimSpace(attr)
		if !ok || attr == "" {
			return true
		}
		value = attr
		found = true
		return false
	})

	return value, found
}
