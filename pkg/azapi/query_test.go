package azapi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloudslab-io/azapi/pkg/azapi"
)

func TestQueryParams_ToValues(t *testing.T) {
	params := azapi.NewQueryParams().
		WithTop(50).
		WithFilter("properties/state eq 'Registered'").
		WithExpand("properties", "metadata").
		WithParam("custom", "a", "b")

	values := params.ToValues()

	assert.Equal(t, "50", values.Get("$top"))
	assert.Equal(t, "properties/state eq 'Registered'", values.Get("$filter"))
	assert.Equal(t, "properties,metadata", values.Get("$expand"))
	assert.Equal(t, []string{"a", "b"}, values["custom"])
}

func TestQueryParams_ToValues_Empty(t *testing.T) {
	values := azapi.NewQueryParams().ToValues()
	assert.Empty(t, values)
}

func TestQueryParams_ToValues_Nil(t *testing.T) {
	var params *azapi.QueryParams

	values := params.ToValues()
	assert.NotNil(t, values)
	assert.Empty(t, values)
}

func TestQueryParams_WithParam_NilMap(t *testing.T) {
	params := &azapi.QueryParams{}
	params.WithParam("key", "value")

	assert.Equal(t, "value", params.ToValues().Get("key"))
}
