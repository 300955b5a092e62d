package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int
	Limit  int
	Total  int
}

// setListHeaders reports the collection size in X-Total-Count. Paged
// responses also get Link headers.
func setListHeaders(c *fiber.Ctx, p Pagination, paged bool) {
	c.Set("X-Total-Count", strconv.Itoa(p.Total))
	if paged {
		SetLinkHeaders(c, p)
	}
}

// SetLinkHeaders adds RFC 8288 Link headers for paginated responses.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := strings.TrimRight(c.Path(), "/")
	link := func(offset int, rel string) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="%s"`, base, offset, p.Limit, rel)
	}

	links := []string{link(0, "first")}
	if p.Offset > 0 {
		links = append(links, link(max(p.Offset-p.Limit, 0), "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}
	links = append(links, link(max(p.Total-p.Limit, 0), "last"))

	c.Append("Link", strings.Join(links, ", "))
}
