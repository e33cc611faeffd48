package core

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
	CategoryBoth    CategoryType = "both"
)

// DefaultCategoryColor is used for category ids missing from the catalogue.
const DefaultCategoryColor = "#64748b"

type (
	// CategoryType tells which transaction types a category applies to.
	CategoryType string

	Category struct {
		ID        string
		Name      string
		Type      CategoryType
		Color     string
		Icon      string
		IsDefault bool
	}
)

// Accepts reports whether the category can be used for transactions of type t.
func (c Category) Accepts(t TransactionType) bool {
	return c.Type == CategoryBoth || string(c.Type) == string(t)
}

var defaultCategories = []Category{
	{ID: "salary", Name: "Salaire", Type: CategoryIncome, Color: "#10b981", Icon: "💼", IsDefault: true},
	{ID: "freelance", Name: "Freelance", Type: CategoryIncome, Color: "#3b82f6", Icon: "💻", IsDefault: true},
	{ID: "investment", Name: "Investissement", Type: CategoryIncome, Color: "#8b5cf6", Icon: "📈", IsDefault: true},
	{ID: "other-income", Name: "Autre revenu", Type: CategoryIncome, Color: "#06b6d4", Icon: "💰", IsDefault: true},

	{ID: "food", Name: "Alimentation", Type: CategoryExpense, Color: "#ef4444", Icon: "🍔", IsDefault: true},
	{ID: "transport", Name: "Transport", Type: CategoryExpense, Color: "#f59e0b", Icon: "🚗", IsDefault: true},
	{ID: "housing", Name: "Logement", Type: CategoryExpense, Color: "#ec4899", Icon: "🏠", IsDefault: true},
	{ID: "utilities", Name: "Factures", Type: CategoryExpense, Color: "#6366f1", Icon: "⚡", IsDefault: true},
	{ID: "entertainment", Name: "Loisirs", Type: CategoryExpense, Color: "#14b8a6", Icon: "🎮", IsDefault: true},
	{ID: "health", Name: "Santé", Type: CategoryExpense, Color: "#f43f5e", Icon: "🏥", IsDefault: true},
	{ID: "shopping", Name: "Shopping", Type: CategoryExpense, Color: "#a855f7", Icon: "🛍️", IsDefault: true},
	{ID: "education", Name: "Éducation", Type: CategoryExpense, Color: "#0ea5e9", Icon: "📚", IsDefault: true},
	{ID: "other-expense", Name: "Autre dépense", Type: CategoryExpense, Color: "#64748b", Icon: "📝", IsDefault: true},
}

// DefaultCategories returns a copy of the fixed catalogue.
func DefaultCategories() []Category {
	return append([]Category(nil), defaultCategories...)
}

// CategoryByID looks up a catalogue entry.
func CategoryByID(id string) (Category, bool) {
	for _, c := range defaultCategories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CategoriesByType returns the entries usable for t, including "both" entries.
func CategoriesByType(t TransactionType) []Category {
	out := make([]Category, 0, len(defaultCategories))
	for _, c := range defaultCategories {
		if c.Accepts(t) {
			out = append(out, c)
		}
	}
	return out
}
