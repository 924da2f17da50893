package tickets

// Category is one of the fixed ticket categories offered by the panel's
// select menu. "cancel" is a pseudo-option handled before creation and
// never stored.
type Category struct {
	ID          string
	Name        string
	Emoji       string
	Description string
}

const CancelCategory = "cancel"

var categories = []Category{
	{ID: "tech_support", Name: "Technical Support", Emoji: "🛠️", Description: "Bugs, errors and technical problems"},
	{ID: "billing", Name: "Billing & Payments", Emoji: "💰", Description: "Payments, refunds and purchases"},
	{ID: "general", Name: "General Question", Emoji: "❓", Description: "General questions about the server"},
	{ID: "other", Name: "Other Issue", Emoji: "📝", Description: "Anything that doesn't fit the above"},
}

func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func CategoryByID(id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
