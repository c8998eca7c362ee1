// Package pagination implements page-number pagination with a
// {count, next, previous, results} envelope.
package pagination

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

const (
	PageParam     = "page"
	PageSizeParam = "page_size"
)

var ErrInvalidPage = errors.New("invalid page")

type Params struct {
	Page int
	Size int
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

func (p Params) Limit() int {
	return p.Size
}

// FromRequest reads page and page_size. A missing page means the first one;
// a malformed page is rejected. page_size falls back to defaultSize when
// missing or malformed and is capped at maxSize.
func FromRequest(r *http.Request, defaultSize, maxSize int) (Params, error) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get(PageParam); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Params{}, ErrInvalidPage
		}
		page = n
	}

	size := defaultSize
	if raw := q.Get(PageSizeParam); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil && n > 0 {
			size = n
		}
	}
	if size > maxSize {
		size = maxSize
	}

	return Params{Page: page, Size: size}, nil
}

type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// New builds the response envelope. Pages past the end are invalid, except
// the first page of an empty collection.
func New[T any](r *http.Request, p Params, count int, results []T) (*Page[T], error) {
	if p.Page > 1 && p.Offset() >= count {
		return nil, ErrInvalidPage
	}
	if results == nil {
		results = []T{}
	}

	page := &Page[T]{Count: count, Results: results}
	if p.Offset()+len(results) < count {
		next := pageURL(r, p.Page+1)
		page.Next = &next
	}
	if p.Page > 1 {
		prev := pageURL(r, p.Page-1)
		page.Previous = &prev
	}
	return page, nil
}

func pageURL(r *http.Request, page int) string {
	u := url.URL{
		Scheme: "http",
		Host:   r.Host,
		Path:   r.URL.Path,
	}
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}

	q := r.URL.Query()
	if page == 1 {
		q.Del(PageParam)
	} else {
		q.Set(PageParam, strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
