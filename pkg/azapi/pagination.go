package azapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Static errors for err113 compliance.
var (
	ErrTooManyPages = errors.New("pagination exceeded the configured page limit")
)

// PageLister fetches a single page of a list endpoint. The path may carry an
// encoded query string when it originates from a nextLink.
type PageLister[T any] interface {
	ListPage(ctx context.Context, path string, params *QueryParams) (*ListResult[T], error)
}

// PageIterator lazily walks a nextLink-paged list. The first page is fetched
// on the first call to Next.
type PageIterator[T any] struct {
	ctx      context.Context
	client   PageLister[T]
	path     string
	params   *QueryParams
	items    []T
	index    int
	nextLink string
	fetched  bool
}

// NewPageIterator creates an iterator over the list endpoint at path.
func NewPageIterator[T any](ctx context.Context, client PageLister[T], path string, params *QueryParams) *PageIterator[T] {
	return &PageIterator[T]{
		ctx:    ctx,
		client: client,
		path:   path,
		params: params,
	}
}

// HasNext reports whether another item may be available. It returns true
// before the first fetch even if the list turns out to be empty.
func (it *PageIterator[T]) HasNext() bool {
	return it.index < len(it.items) || !it.fetched || it.nextLink != ""
}

// Next returns the next item, fetching pages as needed. It returns
// ErrNoMoreItems once the list is exhausted.
func (it *PageIterator[T]) Next() (*T, error) {
	for {
		if it.index < len(it.items) {
			item := &it.items[it.index]
			it.index++

			return item, nil
		}

		if it.fetched && it.nextLink == "" {
			return nil, ErrNoMoreItems
		}

		err := it.fetchNextPage()
		if err != nil {
			return nil, err
		}
	}
}

// All drains the iterator and returns the remaining items.
func (it *PageIterator[T]) All() ([]T, error) {
	var all []T

	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				break
			}

			return nil, err
		}

		all = append(all, *item)
	}

	return all, nil
}

func (it *PageIterator[T]) fetchNextPage() error {
	path := it.path
	params := it.params

	if it.fetched {
		// nextLink already encodes the full query of the follow-up page.
		path = NextLinkPath(it.nextLink)
		params = nil
	}

	page, err := it.client.ListPage(it.ctx, path, params)
	if err != nil {
		return fmt.Errorf("fetching page: %w", err)
	}

	it.fetched = true
	it.items = page.Value
	it.index = 0
	it.nextLink = ""

	if page.NextLink != nil {
		it.nextLink = *page.NextLink
	}

	return nil
}

// NextLinkPath reduces a nextLink to a request path with its query string.
// The service may return either an absolute URL or a relative link.
func NextLinkPath(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}

	if parsed.RawQuery == "" {
		return parsed.Path
	}

	return parsed.Path + "?" + parsed.RawQuery
}

// PaginationOptions bounds page-collection helpers.
type PaginationOptions struct {
	// MaxPages aborts collection when a list paginates past this many pages.
	MaxPages int
}

// DefaultPaginationOptions returns the default collection bounds.
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{MaxPages: 1000}
}

// FetchAllPages collects every item of a paged list endpoint.
func FetchAllPages[T any](ctx context.Context, client PageLister[T], path string, params *QueryParams, opts *PaginationOptions) ([]T, error) {
	if opts == nil {
		opts = DefaultPaginationOptions()
	}

	var all []T

	pages := 0

	for {
		page, err := client.ListPage(ctx, path, params)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", pages+1, err)
		}

		all = append(all, page.Value...)
		pages++

		if page.NextLink == nil || *page.NextLink == "" {
			return all, nil
		}

		if pages >= opts.MaxPages {
			return nil, fmt.Errorf("%w: %d pages", ErrTooManyPages, pages)
		}

		path = NextLinkPath(*page.NextLink)
		params = nil
	}
}

// TokenPageFunc fetches one page of a cursor-paged endpoint. It returns the
// page items and the continuation token of the next page; an empty token ends
// the sequence.
type TokenPageFunc[T any] func(ctx context.Context, continuation string) ([]T, string, error)

// TokenPager lazily walks a continuation-token-paged endpoint such as the
// registry query API.
type TokenPager[T any] struct {
	ctx     context.Context
	fetch   TokenPageFunc[T]
	items   []T
	index   int
	token   string
	started bool
}

// NewTokenPager creates a pager over a cursor-paged endpoint.
func NewTokenPager[T any](ctx context.Context, fetch TokenPageFunc[T]) *TokenPager[T] {
	return &TokenPager[T]{
		ctx:   ctx,
		fetch: fetch,
	}
}

// HasNext reports whether another item may be available.
func (p *TokenPager[T]) HasNext() bool {
	return p.index < len(p.items) || !p.started || p.token != ""
}

// Next returns the next item, following the cursor as needed. It returns
// ErrNoMoreItems once the sequence is exhausted.
func (p *TokenPager[T]) Next() (*T, error) {
	for {
		if p.index < len(p.items) {
			item := &p.items[p.index]
			p.index++

			return item, nil
		}

		if p.started && p.token == "" {
			return nil, ErrNoMoreItems
		}

		items, next, err := p.fetch(p.ctx, p.token)
		if err != nil {
			return nil, fmt.Errorf("fetching page: %w", err)
		}

		p.started = true
		p.items = items
		p.index = 0
		p.token = next
	}
}

// All drains the pager and returns the remaining items.
func (p *TokenPager[T]) All() ([]T, error) {
	var all []T

	for p.HasNext() {
		item, err := p.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				break
			}

			return nil, err
		}

		all = append(all, *item)
	}

	return all, nil
}
