package utils

// Token estimates for sizing tool output sent back to a model. One token is
// taken to be about four characters, which is close enough for every
// provider we talk to.

const charsPerToken = 4

// CountTokens estimates the number of tokens in text. Non-empty text is at
// least one token.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / charsPerToken
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit cuts text to roughly limit tokens on a rune
// boundary.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * charsPerToken
	if charLimit >= len(runes) {
		return text
	}
	return string(runes[:charLimit])
}
