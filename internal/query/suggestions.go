package query

var suggestions = []string{
	"Show me the average values by category",
	"Which item has the highest value?",
	"Create a bar chart of the top 10 items",
	"Show trends over time",
	"What's the distribution of values?",
	"Compare categories with a pie chart",
}

// Suggestions returns the static suggested prompts.
func Suggestions() []string {
	out := make([]string, len(suggestions))
	copy(out, suggestions)
	return out
}

// Suggestion returns prompt i.
func Suggestion(i int) (string, bool) {
	if i < 0 || i >= len(suggestions) {
		return "", false
	}
	return suggestions[i], true
}
