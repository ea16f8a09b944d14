package prompt

import "github.com/huddleapp/huddle/internal/domain/chatModel"

// messageFraming is the per-message protocol overhead added on top of the
// role and content estimates.
const messageFraming = 4

// EstimateTokens approximates the token cost of text as ceil(len/4). The
// estimate is deliberately crude; callers rely only on monotonicity, never
// exactness.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// MessageTokens is the estimated cost of a conversation as submitted to the
// completion API.
func MessageTokens(messages []chatModel.ConversationMessage) int {
	total := 0
	for _, m := range messages {
		total += EstimateTokens(m.Content) + EstimateTokens(m.Role) + messageFraming
	}
	return total
}

// Assemble fits retrieved passages around a conversation. The conversation
// is always preserved verbatim; passages are kept greedily in their given
// relevance order until the next one would overflow the budget, so the kept
// set is always a prefix of the input. With no budget left, zero passages
// are kept.
func Assemble(passages []string, messages []chatModel.ConversationMessage, modelWindow, responseReserve int) ([]string, []chatModel.ConversationMessage) {
	budget := modelWindow - responseReserve - MessageTokens(messages)
	if budget <= 0 {
		return nil, messages
	}

	var kept []string
	used := 0
	for _, p := range passages {
		cost := EstimateTokens(p)
		if used+cost > budget {
			break
		}
		kept = append(kept, p)
		used += cost
	}
	return kept, messages
}
