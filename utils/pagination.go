package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// keeps (page-1)*limit far from int overflow
	MaxPage         = 100_000
)

type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

// PageMeta is returned alongside every paginated listing.
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type Paginated[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// ParsePage reads ?page and ?limit, falling back to defaults on bad input.
func ParsePage(c *fiber.Ctx) Page {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(DefaultPageSize)))
	if err != nil || limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Page{Page: page, Limit: limit}
}

func NewPaginated[T any](data []T, p Page, total int64) Paginated[T] {
	if data == nil {
		data = []T{}
	}
	return Paginated[T]{
		Data: data,
		Meta: PageMeta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: int((total + int64(p.Limit) - 1) / int64(p.Limit)),
		},
	}
}
