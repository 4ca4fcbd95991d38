package ordering

import (
	"sort"

	"github.com/Leganyst/ordering-platform/internal/model"
)

// ResolvedLine: позиция заказа с подставленными именами и рангом подкатегории.
type ResolvedLine struct {
	ProductOrderID int64
	Product        string
	Category       model.Category
	Rank           int
	Variant        string
	Ingredients    []string
	Quantity       int
	Menu           string
}

type OrderLine struct {
	Name        string   `json:"name"`
	Variant     string   `json:"variant,omitempty"`
	Ingredients []string `json:"ingredients"`
	Quantity    int      `json:"quantity"`
	Menu        string   `json:"menu,omitempty"`
}

// OrderView группирует позиции по категории; ключи только для непустых категорий.
type OrderView map[model.Category][]OrderLine

// BuildView раскладывает позиции по категориям и сортирует внутри категории
// по возрастанию ранга подкатегории. При равном ранге порядок по id ProductOrder,
// то есть по порядку вставки.
func BuildView(lines []ResolvedLine) OrderView {
	sorted := make([]ResolvedLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rank != sorted[j].Rank {
			return sorted[i].Rank < sorted[j].Rank
		}
		return sorted[i].ProductOrderID < sorted[j].ProductOrderID
	})

	view := OrderView{}
	for _, l := range sorted {
		ingredients := l.Ingredients
		if ingredients == nil {
			ingredients = []string{}
		}
		view[l.Category] = append(view[l.Category], OrderLine{
			Name:        l.Product,
			Variant:     l.Variant,
			Ingredients: ingredients,
			Quantity:    l.Quantity,
			Menu:        l.Menu,
		})
	}
	return view
}
