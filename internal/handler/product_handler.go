package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"oliveshop/internal/usecase"
)

// /products の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
	e.GET("/products/slug/:slug", h.detailBySlug)
	e.GET("/categories", h.categories)
}

func (h *ProductHandler) list(c echo.Context) error {
	in, ok := parseProductQuery(c)
	if !ok {
		return badRequest(c, "invalid query")
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 公開・管理で共通の一覧クエリ
func parseProductQuery(c echo.Context) (usecase.ListProductsInput, bool) {
	page, limit, ok := parsePaging(c, 20)
	if !ok {
		return usecase.ListProductsInput{}, false
	}

	in := usecase.ListProductsInput{
		Page:         page,
		Limit:        limit,
		Q:            c.QueryParam("q"),
		CategorySlug: c.QueryParam("category"),
		Sort:         c.QueryParam("sort"),
	}

	if v := c.QueryParam("min_price"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return usecase.ListProductsInput{}, false
		}
		in.MinPrice = &x
	}
	if v := c.QueryParam("max_price"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return usecase.ListProductsInput{}, false
		}
		in.MaxPrice = &x
	}
	return in, true
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) detailBySlug(c echo.Context) error {
	p, err := h.uc.GetProductBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) categories(c echo.Context) error {
	list, err := h.uc.ListCategories(c.Request().Context(), true)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
