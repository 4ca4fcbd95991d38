package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Leganyst/ordering-platform/internal/ordering"
	"github.com/Leganyst/ordering-platform/internal/service"
)

type Handler struct {
	orders   *service.OrderService
	catalog  *service.CatalogService
	identity *service.IdentityService
}

func NewHandler(orders *service.OrderService, catalog *service.CatalogService, identity *service.IdentityService) *Handler {
	return &Handler{orders: orders, catalog: catalog, identity: identity}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		Fail(c, ordering.Errorf(ordering.KindMalformedRequest, "invalid id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Fail(c, ordering.Errorf(ordering.KindMalformedRequest, "invalid request body: %v", err))
		return false
	}
	return true
}

func pageParams(c *gin.Context) (int, int) {
	p, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))
	return p, size
}

// --- orders ---

func (h *Handler) CreateOrder(c *gin.Context) {
	req, err := ordering.Decode(c.Request.Body)
	if err != nil {
		Fail(c, err)
		return
	}
	orderID, err := h.orders.CreateOrder(c.Request.Context(), identity(c), req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, gin.H{"order_id": orderID})
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.orders.GetOrder(c.Request.Context(), identity(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, view)
}

func (h *Handler) ListOrders(c *gin.Context) {
	p, size := pageParams(c)
	res, err := h.orders.ListOrders(c.Request.Context(), identity(c), p, size)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, res)
}

func (h *Handler) ListOrderEvents(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, size := pageParams(c)
	res, err := h.orders.ListOrderEvents(c.Request.Context(), identity(c), id, p, size)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, res)
}

func (h *Handler) CompleteOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.orders.CompleteOrder(c.Request.Context(), identity(c), id); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"order_id": id, "complete": true})
}

// --- catalog ---

func (h *Handler) ListProducts(c *gin.Context) {
	groups, err := h.catalog.ListVisibleProducts(c.Request.Context(), identity(c).Role)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, groups)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), identity(c).Role, id)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, p)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var in service.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, p)
}

type priceInput struct {
	Price decimal.Decimal `json:"price"`
}

func (h *Handler) UpdateProductPrice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in priceInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.catalog.UpdateProductPrice(c.Request.Context(), id, in.Price); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"id": id, "price": in.Price})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"id": id})
}

type roleInput struct {
	Role string `json:"role"`
}

func (h *Handler) AddProductRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in roleInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.catalog.AddProductRole(c.Request.Context(), id, in.Role); err != nil {
		Fail(c, err)
		return
	}
	Created(c, gin.H{"product_id": id, "role": in.Role})
}

func (h *Handler) AddVariant(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.NamedPrice
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.catalog.AddVariant(c.Request.Context(), id, in)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, v)
}

func (h *Handler) AddIngredient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.NamedPrice
	if !bindJSON(c, &in) {
		return
	}
	i, err := h.catalog.AddIngredient(c.Request.Context(), id, in)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, i)
}

func (h *Handler) ListSubcategories(c *gin.Context) {
	subs, err := h.catalog.ListSubcategories(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, subs)
}

func (h *Handler) CreateSubcategory(c *gin.Context) {
	var in service.SubcategoryInput
	if !bindJSON(c, &in) {
		return
	}
	sub, err := h.catalog.CreateSubcategory(c.Request.Context(), in)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, sub)
}

func (h *Handler) DeleteSubcategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteSubcategory(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"id": id})
}

func (h *Handler) ListMenus(c *gin.Context) {
	menus, err := h.catalog.ListMenus(c.Request.Context(), identity(c).Role)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, menus)
}

func (h *Handler) GetMenu(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, err := h.catalog.GetMenu(c.Request.Context(), identity(c).Role, id)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, m)
}

func (h *Handler) CreateMenu(c *gin.Context) {
	var in service.MenuInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.catalog.CreateMenu(c.Request.Context(), in)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, m)
}

func (h *Handler) AddMenuProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.MenuItemInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.catalog.AddMenuProduct(c.Request.Context(), id, in); err != nil {
		Fail(c, err)
		return
	}
	Created(c, gin.H{"menu_id": id, "product": in.Name})
}

func (h *Handler) AddMenuRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in roleInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.catalog.AddMenuRole(c.Request.Context(), id, in.Role); err != nil {
		Fail(c, err)
		return
	}
	Created(c, gin.H{"menu_id": id, "role": in.Role})
}

// --- auth / users ---

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var in credentials
	if !bindJSON(c, &in) {
		return
	}
	pair, err := h.identity.Login(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, pair)
}

type passwordInput struct {
	Password string `json:"password"`
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var in passwordInput
	if !bindJSON(c, &in) {
		return
	}
	token, err := h.identity.Refresh(c.Request.Context(), bearer(c), in.Password)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"token": token})
}

func (h *Handler) Register(c *gin.Context) {
	var in service.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.identity.Register(c.Request.Context(), in)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, u)
}

func (h *Handler) ListUsers(c *gin.Context) {
	p, size := pageParams(c)
	res, err := h.identity.ListUsers(c.Request.Context(), identity(c), p, size)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, res)
}

func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.identity.GetUser(c.Request.Context(), identity(c), c.Param("username"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, u)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var in passwordInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.identity.ChangePassword(c.Request.Context(), identity(c), in.Password); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"username": identity(c).Username})
}

type usernameInput struct {
	Username string `json:"username"`
}

func (h *Handler) DeleteUser(c *gin.Context) {
	var in usernameInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.identity.DeleteUser(c.Request.Context(), in.Username); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"username": in.Username})
}
