package token_counter

import (
	"encoding/json"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// tokenCounterImpl estimates prompt sizes before they are sent.
// The counts are approximate for non-OpenAI models and are only used for logging.
type tokenCounterImpl struct {
	encoder *tiktoken.Tiktoken
}

var encodingBase = "cl100k_base"

// messageOverhead is the per-message framing cost
const messageOverhead = 4

// NewTokenCounter creates a new TokenCounter instance
func NewTokenCounter() (*tokenCounterImpl, error) {
	encoder, err := tiktoken.GetEncoding(encodingBase)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}

	return &tokenCounterImpl{
		encoder: encoder,
	}, nil
}

// CountMessagesTokens estimates the token count of a conversation
func (tc *tokenCounterImpl) CountMessagesTokens(messages []Message) int {
	totalTokens := 0
	for _, msg := range messages {
		totalTokens += tc.EstimateMessageTokens(msg)
	}
	return totalTokens
}

func (tc *tokenCounterImpl) EstimateMessageTokens(msg Message) int {
	return tc.CountTextTokens(msg.Role) + tc.CountTextTokens(msg.Content) + messageOverhead
}

// CountTextTokens counts tokens in plain text using tiktoken
func (tc *tokenCounterImpl) CountTextTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(tc.encoder.Encode(text, nil, nil))
}

// CountRequestTokens estimates the size of a whole request body, metadata included
func (tc *tokenCounterImpl) CountRequestTokens(request any) (int, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}
	return tc.CountTextTokens(string(body)), nil
}
