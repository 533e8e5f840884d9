// Call history handlers.
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/services"
	"github.com/tbourn/go-receptionist-backend/internal/utils"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
	maxQueryLen        = 200
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListCallsResponse wraps a page of call logs.
type ListCallsResponse struct {
	Calls      []domain.CallLog `json:"calls"`
	Pagination Pagination       `json:"pagination"`
}

// SearchCallsResponse lists matching calls, best first.
type SearchCallsResponse struct {
	Query string             `json:"query" example:"boiler"`
	Hits  []services.CallHit `json:"hits"`
}

// clampPagination reads page and page_size from the query string.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ParsePage(c.Query("page"), c.Query("page_size"))
}

// ListCalls godoc
// @ID          listCalls
// @Summary     Call history (paginated)
// @Description Returns the tenant's call logs, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Calls
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"calls:user123:4:1700000000:1:20\")
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListCallsResponse
// @Header      200  {string}  ETag  "Weak ETag for the tenant's call set and page window"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /api/v1/calls [get]
func (h *Handlers) ListCalls(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort). The tag covers the page window.
	if count, maxTS, err := h.d.Calls.Stats(ctx, uid); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"calls:%s:%d:%d:%d:%d"`, uid, count, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.d.Calls.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListCallsResponse{
		Calls: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// SearchCalls godoc
// @ID          searchCalls
// @Summary     Search call transcripts
// @Description Ranks the tenant's recent calls by similarity of transcript and summary to q. One hit per call.
// @Tags        Calls
// @Produce     json
// @Security    BearerAuth
//
// @Param       q      query  string  true   "Search text"  example(boiler leak)
// @Param       limit  query  int     false  "Max hits"     minimum(1) maximum(50) default(10)
//
// @Success     200  {object}  handlers.SearchCallsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing query"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /api/v1/calls/search [get]
func (h *Handlers) SearchCalls(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" || len(q) > maxQueryLen {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("q required (1–%d chars)", maxQueryLen))
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), defaultSearchLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	hits, err := h.d.Calls.Search(c.Request.Context(), userID(c), q, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSearchFailed, err.Error())
		return
	}
	if hits == nil {
		hits = []services.CallHit{}
	}
	ok(c, http.StatusOK, SearchCallsResponse{Query: q, Hits: hits})
}
