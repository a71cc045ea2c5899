package azapi_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudslab-io/azapi/pkg/azapi"
)

type testResource struct {
	ID   string
	Name string
}

// mockPageLister serves pages keyed by request path.
type mockPageLister struct {
	pages map[string]*azapi.ListResult[testResource]
	err   error
	calls []string
}

func (m *mockPageLister) ListPage(ctx context.Context, path string, params *azapi.QueryParams) (*azapi.ListResult[testResource], error) {
	m.calls = append(m.calls, path)

	if m.err != nil {
		return nil, m.err
	}

	page, ok := m.pages[path]
	if !ok {
		return &azapi.ListResult[testResource]{}, nil
	}

	return page, nil
}

func twoPageLister() *mockPageLister {
	next := "https://management.azure.com/test?api-version=2021-07-01&$skiptoken=page2"

	return &mockPageLister{
		pages: map[string]*azapi.ListResult[testResource]{
			"/test": {
				Value: []testResource{
					{ID: "1", Name: "first"},
					{ID: "2", Name: "second"},
				},
				NextLink: &next,
			},
			"/test?api-version=2021-07-01&$skiptoken=page2": {
				Value: []testResource{
					{ID: "3", Name: "third"},
				},
			},
		},
	}
}

func TestPageIterator_WalksAllPages(t *testing.T) {
	lister := twoPageLister()
	iterator := azapi.NewPageIterator[testResource](context.Background(), lister, "/test", nil)

	assert.True(t, iterator.HasNext())

	var names []string

	for iterator.HasNext() {
		item, err := iterator.Next()
		if errors.Is(err, azapi.ErrNoMoreItems) {
			break
		}

		require.NoError(t, err)
		names = append(names, item.Name)
	}

	assert.Equal(t, []string{"first", "second", "third"}, names)
	assert.Len(t, lister.calls, 2)
}

func TestPageIterator_Next_Exhausted(t *testing.T) {
	lister := &mockPageLister{
		pages: map[string]*azapi.ListResult[testResource]{
			"/test": {Value: []testResource{{ID: "1"}}},
		},
	}

	iterator := azapi.NewPageIterator[testResource](context.Background(), lister, "/test", nil)

	_, err := iterator.Next()
	require.NoError(t, err)

	_, err = iterator.Next()
	require.ErrorIs(t, err, azapi.ErrNoMoreItems)
}

func TestPageIterator_EmptyList(t *testing.T) {
	lister := &mockPageLister{}
	iterator := azapi.NewPageIterator[testResource](context.Background(), lister, "/test", nil)

	// HasNext is optimistic before the first fetch.
	assert.True(t, iterator.HasNext())

	_, err := iterator.Next()
	require.ErrorIs(t, err, azapi.ErrNoMoreItems)
	assert.False(t, iterator.HasNext())
}

func TestPageIterator_All(t *testing.T) {
	iterator := azapi.NewPageIterator[testResource](context.Background(), twoPageLister(), "/test", nil)

	all, err := iterator.All()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPageIterator_PropagatesError(t *testing.T) {
	lister := &mockPageLister{err: errors.New("backend offline")}
	iterator := azapi.NewPageIterator[testResource](context.Background(), lister, "/test", nil)

	_, err := iterator.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend offline")
}

func TestFetchAllPages(t *testing.T) {
	lister := twoPageLister()

	all, err := azapi.FetchAllPages[testResource](context.Background(), lister, "/test", nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "/test?api-version=2021-07-01&$skiptoken=page2", lister.calls[1])
}

func TestFetchAllPages_MaxPagesExceeded(t *testing.T) {
	// Every page links back to itself.
	self := "/loop"
	lister := &mockPageLister{
		pages: map[string]*azapi.ListResult[testResource]{
			"/loop": {
				Value:    []testResource{{ID: "1"}},
				NextLink: &self,
			},
		},
	}

	_, err := azapi.FetchAllPages[testResource](context.Background(), lister, "/loop", nil, &azapi.PaginationOptions{MaxPages: 3})
	require.ErrorIs(t, err, azapi.ErrTooManyPages)
	assert.Len(t, lister.calls, 3)
}

func TestNextLinkPath(t *testing.T) {
	tests := []struct {
		name     string
		link     string
		expected string
	}{
		{
			name:     "absolute URL",
			link:     "https://management.azure.com/subscriptions/sub-1/features?api-version=2021-07-01&$skiptoken=abc",
			expected: "/subscriptions/sub-1/features?api-version=2021-07-01&$skiptoken=abc",
		},
		{
			name:     "relative path with query",
			link:     "/subscriptions/sub-1/features?$skiptoken=abc",
			expected: "/subscriptions/sub-1/features?$skiptoken=abc",
		},
		{
			name:     "path without query",
			link:     "/subscriptions/sub-1/features",
			expected: "/subscriptions/sub-1/features",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, azapi.NextLinkPath(testCase.link))
		})
	}
}

func TestTokenPager_WalksCursor(t *testing.T) {
	fetches := 0

	pager := azapi.NewTokenPager(context.Background(), func(ctx context.Context, continuation string) ([]testResource, string, error) {
		fetches++

		if continuation == "" {
			return []testResource{{ID: "1"}, {ID: "2"}}, "cursor-1", nil
		}

		assert.Equal(t, "cursor-1", continuation)

		return []testResource{{ID: "3"}}, "", nil
	})

	all, err := pager.All()
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 2, fetches)
}

func TestTokenPager_EmptyFirstPage(t *testing.T) {
	pager := azapi.NewTokenPager(context.Background(), func(ctx context.Context, continuation string) ([]testResource, string, error) {
		return nil, "", nil
	})

	assert.True(t, pager.HasNext())

	_, err := pager.Next()
	require.ErrorIs(t, err, azapi.ErrNoMoreItems)
	assert.False(t, pager.HasNext())
}

func TestTokenPager_PropagatesError(t *testing.T) {
	pager := azapi.NewTokenPager(context.Background(), func(ctx context.Context, continuation string) ([]testResource, string, error) {
		return nil, "", errors.New("query rejected")
	})

	_, err := pager.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query rejected")
}
