package page

// DefaultSize используется, если размер страницы не задан или некорректен.
const DefaultSize = 20

// MaxSize ограничивает размер страницы сверху.
const MaxSize = 100

// Page описывает одну страницу элементов.
type Page[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`      // номер страницы (с 1)
	PageSize int  `json:"page_size"` // количество элементов на странице
	HasNext  bool `json:"has_next"`
	HasPrev  bool `json:"has_prev"`
	Total    int  `json:"total"`
}

// Normalize приводит номер и размер страницы к допустимым значениям.
func Normalize(page, size int) (int, int) {
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	if page <= 0 {
		page = 1
	}
	return page, size
}

// Offset возвращает смещение первой записи страницы (для LIMIT/OFFSET).
func Offset(page, size int) int {
	page, size = Normalize(page, size)
	return (page - 1) * size
}

// Paginate возвращает срез items для указанной страницы и метаданные.
// page нумеруется с 1. При некорректных значениях используются дефолты.
func Paginate[T any](items []T, page, size int) Page[T] {
	page, size = Normalize(page, size)
	total := len(items)

	start := min((page-1)*size, total)
	end := min(start+size, total)

	return FromWindow(items[start:end], page, size, total)
}

// FromWindow собирает страницу из уже вырезанного окна (когда LIMIT/OFFSET сделал репозиторий).
func FromWindow[T any](window []T, page, size, total int) Page[T] {
	page, size = Normalize(page, size)
	if window == nil {
		window = []T{}
	}
	end := (page-1)*size + len(window)
	return Page[T]{
		Items:    window,
		Page:     page,
		PageSize: size,
		HasNext:  end < total,
		HasPrev:  page > 1,
		Total:    total,
	}
}
