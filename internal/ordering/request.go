package ordering

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// OrderInfo: шапка заказа.
type OrderInfo struct {
	// max совпадает с orders.client varchar(20)
	Client   string `json:"client" validate:"required,min=3,max=20"`
	Person   *int   `json:"person,omitempty" validate:"omitempty,gt=0"`
	TakeAway *bool  `json:"take_away" validate:"required"`
	Table    *int   `json:"table,omitempty" validate:"omitempty,gt=0"`
}

// ProductSelection is a chosen product, standalone or inside a menu.
type ProductSelection struct {
	ID          int64   `json:"id" validate:"required,gt=0"`
	Variant     *int64  `json:"variant,omitempty" validate:"omitempty,gt=0"`
	Ingredients []int64 `json:"ingredients,omitempty" validate:"omitempty,dive,gt=0"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
}

type MenuSelection struct {
	ID       int64              `json:"id" validate:"required,gt=0"`
	Products []ProductSelection `json:"products" validate:"dive"`
}

// OrderRequest is the body of POST /orders.
type OrderRequest struct {
	Info     *OrderInfo         `json:"info" validate:"required"`
	Products []ProductSelection `json:"products" validate:"dive"`
	Menus    []MenuSelection    `json:"menus" validate:"dive"`
}

// Empty сообщает, что не выбрано ни продуктов, ни меню.
func (r *OrderRequest) Empty() bool {
	return len(r.Products) == 0 && len(r.Menus) == 0
}

// Decode строго разбирает OrderRequest: неизвестные поля, неверные типы и
// мусор после JSON-объекта дают MalformedRequest.
func Decode(body io.Reader) (*OrderRequest, error) {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var req OrderRequest
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, Errorf(KindMalformedRequest, "request body is empty")
		}
		return nil, Errorf(KindMalformedRequest, "invalid request body: %v", err)
	}
	if dec.More() {
		return nil, Errorf(KindMalformedRequest, "unexpected data after request body")
	}

	req.normalize()
	return &req, nil
}

// normalize убирает повторы ингредиентов внутри одной позиции, сохраняя порядок.
func (r *OrderRequest) normalize() {
	for i := range r.Products {
		r.Products[i].Ingredients = dedupeIDs(r.Products[i].Ingredients)
	}
	for i := range r.Menus {
		for j := range r.Menus[i].Products {
			r.Menus[i].Products[j].Ingredients = dedupeIDs(r.Menus[i].Products[j].Ingredients)
		}
	}
}

func dedupeIDs(ids []int64) []int64 {
	if len(ids) < 2 {
		return ids
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator возвращает общий экземпляр validator с именами полей из json-тегов.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// CheckStruct прогоняет теги validate и переводит первую ошибку в MalformedRequest.
func CheckStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return Errorf(KindMalformedRequest, "%s", describeFieldError(verrs[0]))
	}
	return Errorf(KindMalformedRequest, "invalid request: %v", err)
}

func describeFieldError(fe validator.FieldError) string {
	// "OrderRequest.info.client" -> "info.client"
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", field, fe.Tag())
	}
}
