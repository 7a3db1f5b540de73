package core

// Category is the closed set of spending categories. The labels are the
// canonical stored values, so changing one is a data migration.
type Category string

const (
	CategoryRent          Category = "Аренда"
	CategoryElectricity   Category = "Электричество"
	CategoryInternet      Category = "Интернет"
	CategoryFood          Category = "Еда"
	CategorySubscriptions Category = "Подписки"
	CategoryCourses       Category = "Курсы"
	CategoryGas           Category = "Бензин"
	CategoryAutoRepair    Category = "Авто-ремонт"
	CategoryClothing      Category = "Одежда и обувь"
	CategoryPharmacy      Category = "Аптека"
	CategoryDoctor        Category = "Врач"
	CategoryParking       Category = "Парковка"
	CategoryHousehold     Category = "Хоз.нужды"
	CategoryEntertainment Category = "Развлечения"
	CategoryDailyLife     Category = "Бытовые расходы"
	CategoryTravel        Category = "Путешествия"
	CategoryCatCare       Category = "Кошачье хозяйство"
	CategoryUnforeseen    Category = "Непредвиденное"
	CategorySavings       Category = "Накопления"
	CategoryIncome        Category = "Доход"
)

// Categories lists every category in display order. Income is last so
// expense pickers can slice it off.
var Categories = []Category{
	CategoryRent,
	CategoryElectricity,
	CategoryInternet,
	CategoryFood,
	CategorySubscriptions,
	CategoryCourses,
	CategoryGas,
	CategoryAutoRepair,
	CategoryClothing,
	CategoryPharmacy,
	CategoryDoctor,
	CategoryParking,
	CategoryHousehold,
	CategoryEntertainment,
	CategoryDailyLife,
	CategoryTravel,
	CategoryCatCare,
	CategoryUnforeseen,
	CategorySavings,
	CategoryIncome,
}

// categoryColors maps each category to its display color (hex).
var categoryColors = map[Category]string{
	CategoryRent:          "#6366f1",
	CategoryElectricity:   "#f59e0b",
	CategoryInternet:      "#3b82f6",
	CategoryFood:          "#10b981",
	CategorySubscriptions: "#ec4899",
	CategoryCourses:       "#8b5cf6",
	CategoryGas:           "#f43f5e",
	CategoryAutoRepair:    "#64748b",
	CategoryClothing:      "#fb923c",
	CategoryPharmacy:      "#14b8a6",
	CategoryDoctor:        "#ef4444",
	CategoryParking:       "#71717a",
	CategoryHousehold:     "#a855f7",
	CategoryEntertainment: "#facc15",
	CategoryDailyLife:     "#06b6d4",
	CategoryTravel:        "#2dd4bf",
	CategoryCatCare:       "#fb7185",
	CategoryUnforeseen:    "#475569",
	CategorySavings:       "#4f46e5",
	CategoryIncome:        "#22c55e",
}

const defaultCategoryColor = "#cbd5e1"

// Color returns the display color for the category, or a neutral grey for
// unknown values.
func (c Category) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return defaultCategoryColor
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	_, ok := categoryColors[c]
	return ok
}

// ExpenseCategories returns every category valid for expense entries,
// which is every category except Income.
func ExpenseCategories() []Category {
	out := make([]Category, 0, len(Categories)-1)
	for _, c := range Categories {
		if c == CategoryIncome {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ParseCategory validates a raw stored value against the closed set.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}
