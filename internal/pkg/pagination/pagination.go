package pagination

import (
	"strconv"

	"github.com/councildigest/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Summary listings page at 20 rows; artifacts carry longtext bodies, so
// the page cap stays low.
const (
	DefaultPage = 1
	DefaultSize = 20
	MaxSize     = 50
)

// Query holds clamped pagination parameters.
type Query struct {
	Page int
	Size int
}

// FromContext parses the page/size query params, clamping to the limits.
func FromContext(c *gin.Context) Query {
	return Query{
		Page: clamp(intQuery(c, "page", DefaultPage), 1, 0),
		Size: clamp(intQuery(c, "size", DefaultSize), 1, MaxSize),
	}
}

// Offset returns the row offset for this page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Size
}

// Paginate counts, applies offset/limit to the query, and fills dest.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}
	if err := db.Offset(q.Offset()).Limit(q.Size).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}

	totalPage := int((total + int64(q.Size) - 1) / int64(q.Size))
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}, nil
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// clamp bounds v to [min, max]; max <= 0 means unbounded above.
func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if max > 0 && v > max {
		return max
	}
	return v
}
