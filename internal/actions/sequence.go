package actions

import "strings"

// Sequence is an ActionSequence string over the alphabet {X,B,R,C,F,A,U}
// joined by "-" (spec §3).
type Sequence string

// EncodeSequence derives the canonical ActionSequence from a list of raw
// action tokens, in order.
func EncodeSequence(history []Action) Sequence {
	if len(history) == 0 {
		return ""
	}
	letters := make([]string, len(history))
	for i, a := range history {
		letters[i] = string(a.Letter())
	}
	return Sequence(strings.Join(letters, "-"))
}

// Truncate returns the sequence with its last n actions removed, used by the
// retriever's parent-fallback loop (spec §4.5 step 5).
func (s Sequence) Truncate(n int) Sequence {
	parts := s.parts()
	if n >= len(parts) {
		return ""
	}
	return Sequence(strings.Join(parts[:len(parts)-n], "-"))
}

func (s Sequence) parts() []string {
	if s == "" {
		return nil
	}
	return strings.Split(string(s), "-")
}

// Len reports how many actions the sequence encodes.
func (s Sequence) Len() int {
	return len(s.parts())
}
