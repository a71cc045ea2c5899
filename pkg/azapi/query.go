package azapi

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryParams represents common list options for the management APIs. ARM
// endpoints receive the OData forms ($top, $filter, $expand); the hub device
// list maps Top to its plain "top" parameter.
type QueryParams struct {
	Top     int
	Filter  string
	Expand  []string
	Filters map[string][]string
}

// NewQueryParams creates an empty QueryParams.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Filters: make(map[string][]string),
	}
}

// WithTop sets the maximum number of results per page.
func (p *QueryParams) WithTop(top int) *QueryParams {
	p.Top = top

	return p
}

// WithFilter sets the OData $filter expression.
func (p *QueryParams) WithFilter(filter string) *QueryParams {
	p.Filter = filter

	return p
}

// WithExpand adds an $expand clause.
func (p *QueryParams) WithExpand(expand ...string) *QueryParams {
	p.Expand = append(p.Expand, expand...)

	return p
}

// WithParam adds an arbitrary query parameter.
func (p *QueryParams) WithParam(key string, values ...string) *QueryParams {
	if p.Filters == nil {
		p.Filters = make(map[string][]string)
	}

	p.Filters[key] = append(p.Filters[key], values...)

	return p
}

// ToValues converts the params to url.Values.
func (p *QueryParams) ToValues() url.Values {
	values := url.Values{}

	if p == nil {
		return values
	}

	if p.Top > 0 {
		values.Set("$top", strconv.Itoa(p.Top))
	}

	if p.Filter != "" {
		values.Set("$filter", p.Filter)
	}

	if len(p.Expand) > 0 {
		values.Set("$expand", strings.Join(p.Expand, ","))
	}

	for key, vals := range p.Filters {
		for _, val := range vals {
			values.Add(key, val)
		}
	}

	return values
}
