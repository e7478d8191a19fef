package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/accord-backend/internal/domain/decision"
)

// parseListFilter reads the list query string. Limit and offset are clamped
// later by ListFilter.Normalize; only unparseable values are rejected here.
func parseListFilter(c *gin.Context) (decision.ListFilter, error) {
	f := decision.ListFilter{
		Search: c.Query("search"),
		UserID: strings.TrimSpace(c.Query("user_id")),
	}
	if raw := strings.TrimSpace(c.Query("is_superseded")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, decision.Invalid("is_superseded", "must be true or false")
		}
		f.IsSuperseded = &v
	}
	var err error
	if f.CreatedAfter, err = parseTimeParam(c, "created_after"); err != nil {
		return f, err
	}
	if f.CreatedBefore, err = parseTimeParam(c, "created_before"); err != nil {
		return f, err
	}
	if f.Limit, err = parseIntParam(c, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = parseIntParam(c, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func parseTimeParam(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, decision.Invalid(name, "must be an RFC 3339 timestamp")
	}
	return &t, nil
}

func parseIntParam(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, decision.Invalid(name, "must be an integer")
	}
	return n, nil
}
