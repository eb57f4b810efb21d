package orchestrator

import "strings"

// PromptResult is the Prompt Generator's output (spec.md §4.7).
type PromptResult struct {
	NeedsNewPrompt bool
	Prompt         string
	CleanedHistory []Message
}

// PromptGenerator classifies merged transcripts as a real interruption, a
// backchannel false alarm, or pure noise, and performs the history fusion
// that preserves the user's intent across a barge-in. It is a pure function
// of its inputs (§4.7) so it is trivial to unit test in isolation from the
// Decision Task that calls it.
type PromptGenerator struct {
	backchannels map[string]struct{}
}

// NewPromptGenerator builds a generator from a configured backchannel
// phrase list (falls back to the spec's default set when empty).
func NewPromptGenerator(phrases []string) *PromptGenerator {
	if len(phrases) == 0 {
		phrases = defaultBackchannelPhrases()
	}
	set := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		set[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	return &PromptGenerator{backchannels: set}
}

// Generate implements spec.md §4.7's algorithm verbatim.
func (g *PromptGenerator) Generate(transcripts []string, history []Message, isInterruption bool) PromptResult {
	merged := collapseWhitespace(strings.Join(transcripts, " "))

	if merged == "" {
		return PromptResult{NeedsNewPrompt: false, Prompt: "", CleanedHistory: history}
	}

	if !isInterruption {
		return PromptResult{NeedsNewPrompt: true, Prompt: merged, CleanedHistory: history}
	}

	if g.isFalseAlarm(merged) {
		return PromptResult{NeedsNewPrompt: false, Prompt: merged, CleanedHistory: history}
	}

	cleaned := fuseInterruption(history, merged)
	return PromptResult{NeedsNewPrompt: true, Prompt: merged, CleanedHistory: cleaned}
}

// isFalseAlarm implements the classification rule of §4.7 step 4: the
// merged utterance is a backchannel iff its normalised form is itself a
// member of the phrase set, or it contains one of those phrases and has at
// most 2 tokens (guards against longer utterances that merely mention one
// of the phrases, e.g. "okay but actually can you tell me a joke").
func (g *PromptGenerator) isFalseAlarm(merged string) bool {
	normalized := strings.ToLower(strings.TrimSpace(merged))
	if _, ok := g.backchannels[normalized]; ok {
		return true
	}

	tokenCount := len(strings.Fields(normalized))
	if tokenCount > 2 {
		return false
	}
	for phrase := range g.backchannels {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

// fuseInterruption drops an unheard trailing agent message and fuses the
// new utterance onto the previous user message, so the LLM sees the
// interruption as a continuation of the user's last turn rather than a
// fresh one (spec.md §4.7 step 6, GLOSSARY "Fusion").
func fuseInterruption(history []Message, merged string) []Message {
	cleaned := make([]Message, len(history))
	copy(cleaned, history)

	if len(cleaned) > 0 && cleaned[len(cleaned)-1].Role == "agent" {
		cleaned = cleaned[:len(cleaned)-1]
	}

	if len(cleaned) > 0 && cleaned[len(cleaned)-1].Role == "user" {
		last := cleaned[len(cleaned)-1]
		cleaned[len(cleaned)-1] = Message{Role: "user", Content: last.Content + " " + merged}
	}

	return cleaned
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
