package mapper

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter_RepeatedAndCommaSeparated(t *testing.T) {
	values, err := url.ParseQuery("brand=Noor&brand=Sel,Atelier&note=rose,%20oud&volume=50,100&inStock=true&sort=price_asc&page=2&pageSize=12&minPrice=10.5&q=amber")
	require.NoError(t, err)

	f, fields := ParseFilter(values)
	require.Nil(t, fields)
	assert.Equal(t, []string{"Noor", "Sel", "Atelier"}, f.Brands)
	assert.Equal(t, []string{"rose", "oud"}, f.Notes)
	assert.Equal(t, []int{50, 100}, f.VolumesML)
	assert.True(t, f.InStockOnly)
	assert.Equal(t, "price_asc", string(f.Sort))
	assert.Equal(t, 2, f.Page)
	assert.Equal(t, 12, f.PageSize)
	assert.Equal(t, "10.5", f.MinPrice.String())
	assert.Nil(t, f.MaxPrice)
	assert.Equal(t, "amber", f.Query)
}

func TestParseFilter_FieldErrors(t *testing.T) {
	values, err := url.ParseQuery("page=two&minPrice=cheap&volume=50,big&inStock=maybe")
	require.NoError(t, err)

	_, fields := ParseFilter(values)
	assert.Contains(t, fields, ParamPage)
	assert.Contains(t, fields, ParamMinPrice)
	assert.Contains(t, fields, ParamVolume)
	assert.Contains(t, fields, ParamInStock)
}

func TestParseFilter_Empty(t *testing.T) {
	f, fields := ParseFilter(url.Values{})
	assert.Nil(t, fields)
	assert.Zero(t, f.Page)
	assert.Empty(t, f.Brands)
}
