package core

import "stepgen/pkg/domain"

// PairRule recognizes two adjacent commands that cancel each other out.
type PairRule interface {
	Name() string
	Cancels(first, second domain.Command) bool
}

// Stripper removes cancelling command pairs using its registered rules.
type Stripper struct {
	rules []PairRule
}

// NewStripper constructs a stripper with no rules.
func NewStripper() *Stripper {
	return &Stripper{}
}

// NewDefaultStripper builds a stripper with the built-in rule set.
func NewDefaultStripper() *Stripper {
	s := NewStripper()
	s.Register(NoOpMixRule{})
	return s
}

// Register appends a rule to the stripper.
func (s *Stripper) Register(rule PairRule) {
	if rule == nil {
		return
	}
	s.rules = append(s.rules, rule)
}

// Rules returns the registered rule names in registration order.
func (s *Stripper) Rules() []string {
	names := make([]string, len(s.rules))
	for i, rule := range s.rules {
		names[i] = rule.Name()
	}
	return names
}

// Strip removes every adjacent pair matched by any registered rule.
func (s *Stripper) Strip(commands []domain.Command) []domain.Command {
	return RemovePairs(commands, func(first, second domain.Command) bool {
		for _, rule := range s.rules {
			if rule.Cancels(first, second) {
				return true
			}
		}
		return false
	})
}
