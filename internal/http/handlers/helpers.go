package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/newsboy-backend/internal/http/response"
	"github.com/yungbote/newsboy-backend/internal/pkg/pagination"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

// fail writes err and logs it when it was not a client error.
func fail(c *gin.Context, log *logger.Logger, op string, err error) {
	if response.RespondAPIError(c, err) && log != nil {
		log.Error(op+" failed", "error", err, "path", c.FullPath())
	}
}

func badRequest(c *gin.Context, err error) {
	response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid id %q", c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a boolean", key)
	}
	return &b, nil
}

// window accepts either skip/limit or page/page_size. skip/limit wins when
// both are present.
func window(c *gin.Context) (pagination.Window, error) {
	if c.Query("skip") != "" || c.Query("limit") != "" {
		skip, err := queryInt(c, "skip", 0)
		if err != nil {
			return pagination.Window{}, err
		}
		limit, err := queryInt(c, "limit", pagination.DefaultPageSize)
		if err != nil {
			return pagination.Window{}, err
		}
		return pagination.FromSkipLimit(skip, limit), nil
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return pagination.Window{}, err
	}
	size, err := queryInt(c, "page_size", pagination.DefaultPageSize)
	if err != nil {
		return pagination.Window{}, err
	}
	return pagination.FromPage(page, size), nil
}
