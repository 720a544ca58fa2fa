package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/foodgram/apiserver/config"
)

// Page is the paginated list envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type pageRequest struct {
	Page   int
	Limit  int
	Offset int
}

func parsePagination(r *http.Request, cfg config.PagingConfig) (pageRequest, error) {
	req := pageRequest{Page: 1, Limit: cfg.DefaultPageSize}
	if req.Limit < 1 {
		req.Limit = 6
	}

	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return pageRequest{}, errors.New("invalid page")
		}
		req.Page = page
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return pageRequest{}, errors.New("invalid limit")
		}
		req.Limit = limit
	}
	if cfg.MaxPageSize > 0 && req.Limit > cfg.MaxPageSize {
		req.Limit = cfg.MaxPageSize
	}

	req.Offset = (req.Page - 1) * req.Limit
	return req, nil
}

// newPage builds the envelope with absolute next/previous links.
func newPage[T any](r *http.Request, publicURL string, req pageRequest, total int, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: total, Results: results}
	if req.Offset+len(results) < total {
		page.Next = pageLink(r, publicURL, req.Page+1)
	}
	if req.Page > 1 {
		page.Previous = pageLink(r, publicURL, req.Page-1)
	}
	return page
}

func pageLink(r *http.Request, publicURL string, page int) *string {
	query := r.URL.Query()
	if page == 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}
	u := url.URL{Path: r.URL.Path, RawQuery: query.Encode()}
	link := strings.TrimRight(publicURL, "/") + u.RequestURI()
	return &link
}
