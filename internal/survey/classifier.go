package survey

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/surveypilot/internal/config"
)

// Rule maps a page to Tag when any one of its Match groups has all of its terms present in the page text.
// Terms are compared after normalization, so accents and case are irrelevant.
type Rule struct {
	Tag   PageTag
	Match [][]string
}

// DefaultRules is the built-in rule table. Order matters: the first matching rule wins, so combinations
// of specific phrases are listed before broader ones.
func DefaultRules() []Rule {
	return []Rule{
		{Tag: TagAge, Match: [][]string{{"quel est votre âge"}}},
		{Tag: TagDateTime, Match: [][]string{{"jour", "heure", "restaurant"}}},
		{Tag: TagOrderMode, Match: [][]string{{"borne de commande"}, {"comptoir", "drive"}}},
		{Tag: TagPlace, Match: [][]string{{"consommé sur place"}, {"pris à emporter"}}},
		{Tag: TagPickup, Match: [][]string{{"où avez-vous récupéré"}}},
		{Tag: TagDelivery, Match: [][]string{{"service de livraison"}}},
		{Tag: TagSatisfaction, Match: [][]string{{"dans quelle mesure", "satisfait"}}},
		{Tag: TagExact, Match: [][]string{{"commande était exacte"}}},
		{Tag: TagProblem, Match: [][]string{{"problème durant"}}},
		{Tag: TagImprove, Match: [][]string{{"domaine", "améliorée"}}},
		{Tag: TagComplete, Match: [][]string{{"merci", "participation"}}},
	}
}

// RulesFromConfig converts configured rules. An empty list yields DefaultRules.
func RulesFromConfig(cfgs []config.RuleConfig) ([]Rule, error) {
	if len(cfgs) == 0 {
		return DefaultRules(), nil
	}
	rules := make([]Rule, 0, len(cfgs))
	for i, rc := range cfgs {
		tag, err := ParsePageTag(rc.Tag)
		if err != nil {
			return nil, fmt.Errorf("classifier rule %d: %w", i, err)
		}
		if len(rc.Match) == 0 {
			return nil, fmt.Errorf("classifier rule %d (%s): no match groups", i, tag)
		}
		rules = append(rules, Rule{Tag: tag, Match: rc.Match})
	}
	return rules, nil
}

// Classifier assigns a PageTag to rendered page text. It holds no mutable state and is safe for
// concurrent use.
type Classifier struct {
	rules []compiledRule
}

type compiledRule struct {
	tag    PageTag
	groups [][]string
}

// NewClassifier prepares rules for matching. Empty groups and blank terms are rejected since they would
// match every page.
func NewClassifier(rules []Rule) (*Classifier, error) {
	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		cr := compiledRule{tag: r.Tag}
		for j, group := range r.Match {
			if len(group) == 0 {
				return nil, fmt.Errorf("rule %d (%s) group %d is empty", i, r.Tag, j)
			}
			terms := make([]string, 0, len(group))
			for _, term := range group {
				n := Normalize(term)
				if n == "" {
					return nil, fmt.Errorf("rule %d (%s) group %d has a blank term", i, r.Tag, j)
				}
				terms = append(terms, n)
			}
			cr.groups = append(cr.groups, terms)
		}
		c.rules = append(c.rules, cr)
	}
	return c, nil
}

// MustNewClassifier is NewClassifier for rule tables known to be valid, such as DefaultRules.
func MustNewClassifier(rules []Rule) *Classifier {
	c, err := NewClassifier(rules)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the tag of the first matching rule, or TagUnknown.
func (c *Classifier) Classify(text string) PageTag {
	tag, _ := c.Explain(text)
	return tag
}

// Explain is Classify plus the index of the rule that matched; -1 when nothing matched.
func (c *Classifier) Explain(text string) (PageTag, int) {
	page := Normalize(text)
	for i, r := range c.rules {
		if r.matches(page) {
			return r.tag, i
		}
	}
	return TagUnknown, -1
}

func (r compiledRule) matches(page string) bool {
	for _, group := range r.groups {
		all := true
		for _, term := range group {
			if !strings.Contains(page, term) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
