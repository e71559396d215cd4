package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"roster-server-go/query"
)

// PagingConfig holds the page size defaults for list endpoints.
type PagingConfig struct {
	DefaultSize int
	MaxSize     int
}

// parse reads page, size and sort from the query string. Sizes above MaxSize are
// clamped; the default ordering is id ascending.
func (p PagingConfig) parse(c *gin.Context) (query.PageRequest, error) {
	pr := query.PageRequest{Page: 0, Size: p.DefaultSize}

	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return pr, &query.InvalidPageError{Field: "page", Message: fmt.Sprintf("%q is not a number", v)}
		}
		pr.Page = n
	}
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return pr, &query.InvalidPageError{Field: "size", Message: fmt.Sprintf("%q is not a number", v)}
		}
		pr.Size = n
	}
	if p.MaxSize > 0 && pr.Size > p.MaxSize {
		pr.Size = p.MaxSize
	}

	for _, s := range c.QueryArray("sort") {
		o, err := query.ParseOrder(s)
		if err != nil {
			return pr, err
		}
		pr.Sort = append(pr.Sort, o)
	}
	if len(pr.Sort) == 0 {
		pr.Sort = []query.Order{{Field: "id", Direction: query.Asc}}
	}

	return pr, pr.Validate()
}

// writePaginationHeaders sets X-Total-Count and a Link header with next, prev, last and
// first relations, keeping every other query parameter of the request.
func writePaginationHeaders(c *gin.Context, total int64, page, size, totalPages int) {
	c.Header("X-Total-Count", strconv.FormatInt(total, 10))

	lastPage := 0
	if totalPages > 0 {
		lastPage = totalPages - 1
	}

	var links []string
	if page < lastPage {
		links = append(links, pageLink(c.Request.URL, page+1, size, "next"))
	}
	if page > 0 && page <= lastPage+1 {
		links = append(links, pageLink(c.Request.URL, page-1, size, "prev"))
	}
	links = append(links,
		pageLink(c.Request.URL, lastPage, size, "last"),
		pageLink(c.Request.URL, 0, size, "first"))

	c.Header("Link", strings.Join(links, ","))
}

func pageLink(u *url.URL, page, size int, rel string) string {
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return fmt.Sprintf("<%s?%s>; rel=\"%s\"", u.Path, q.Encode(), rel)
}
