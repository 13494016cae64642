package token_counter

type TokenCounterInterface interface {
	CountMessagesTokens(messages []Message) int
	EstimateMessageTokens(msg Message) int
	CountTextTokens(text string) int
	CountRequestTokens(request any) (int, error)
}

// Message is the provider-neutral shape of a chat turn
type Message struct {
	Role    string
	Content string
}
