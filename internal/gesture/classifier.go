// Package gesture classifies static hand poses from landmark geometry.
package gesture

import (
	"fmt"

	"github.com/ayusman/wavein/internal/hand"
)

// Label names a recognised hand pose. The zero value means no gesture.
type Label string

const (
	None     Label = ""
	OpenHand Label = "open_hand"
	Fist     Label = "fist"
	Victory  Label = "victory"
	Pointing Label = "pointing"
)

// Predicate reports whether a set of landmarks forms a pose.
type Predicate func(l *hand.Landmarks) bool

// Rule pairs a label with the predicate that detects it.
type Rule struct {
	Label Label
	Match Predicate
}

// DefaultRules is the evaluation order used for attendance. The predicates
// overlap, so the first matching rule wins.
var DefaultRules = []Rule{
	{Label: OpenHand, Match: IsOpenHand},
	{Label: Fist, Match: IsFist},
	{Label: Victory, Match: IsVictory},
	{Label: Pointing, Match: IsPointing},
}

// Classifier evaluates an ordered rule list. It holds no per-call state.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier using DefaultRules.
func NewClassifier() *Classifier {
	return &Classifier{rules: DefaultRules}
}

// NewClassifierWithRules creates a classifier with a custom rule order.
func NewClassifierWithRules(rules []Rule) (*Classifier, error) {
	seen := make(map[Label]bool, len(rules))
	for i, r := range rules {
		if r.Label == None || r.Match == nil {
			return nil, fmt.Errorf("rule %d: label and predicate are required", i)
		}
		if seen[r.Label] {
			return nil, fmt.Errorf("rule %d: duplicate label %q", i, r.Label)
		}
		seen[r.Label] = true
	}
	return &Classifier{rules: rules}, nil
}

// Classify returns the label of the first rule that matches, or None.
func (c *Classifier) Classify(l *hand.Landmarks) Label {
	if l == nil {
		return None
	}
	for _, r := range c.rules {
		if r.Match(l) {
			return r.Label
		}
	}
	return None
}

// Labels returns the labels in evaluation order.
func (c *Classifier) Labels() []Label {
	labels := make([]Label, len(c.rules))
	for i, r := range c.rules {
		labels[i] = r.Label
	}
	return labels
}

// ParseLabel converts a configured gesture name to a Label.
func ParseLabel(s string) (Label, error) {
	switch l := Label(s); l {
	case OpenHand, Fist, Victory, Pointing:
		return l, nil
	}
	return None, fmt.Errorf("unknown gesture %q", s)
}

var allFingers = []hand.Finger{hand.Thumb, hand.Index, hand.Middle, hand.Ring, hand.Pinky}

var nonThumb = []hand.Finger{hand.Index, hand.Middle, hand.Ring, hand.Pinky}

func count(fingers []hand.Finger, pred func(hand.Finger) bool) int {
	n := 0
	for _, f := range fingers {
		if pred(f) {
			n++
		}
	}
	return n
}

// IsOpenHand is true when at least four of five tips are above their proximal joints.
func IsOpenHand(l *hand.Landmarks) bool {
	return count(allFingers, l.Extended) >= 4
}

// IsFist is true when at least three of the four fingers have tips below their knuckles.
func IsFist(l *hand.Landmarks) bool {
	return count(nonThumb, l.Curled) >= 3
}

// IsVictory is true for index and middle up with ring and pinky down.
func IsVictory(l *hand.Landmarks) bool {
	return l.Extended(hand.Index) && l.Extended(hand.Middle) &&
		l.Folded(hand.Ring) && l.Folded(hand.Pinky)
}

// IsPointing is true for the index up with the other three fingers down.
func IsPointing(l *hand.Landmarks) bool {
	return l.Extended(hand.Index) &&
		l.Folded(hand.Middle) && l.Folded(hand.Ring) && l.Folded(hand.Pinky)
}
