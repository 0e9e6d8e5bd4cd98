package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func sampleProducts() []*Product {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*Product{
		{ID: 1, Slug: "rose-noir", Name: "Rose Noir", Brand: "Maison A", Gender: GenderWomen, Family: "floral",
			Concentration: ConcentrationEDP, Notes: []string{"Rose", "Oud"}, Active: true, Popularity: 5,
			RatingAverage: price("4.5"), CreatedAt: base,
			Variants: []Variant{{ID: 11, SKU: "RN-50", VolumeML: 50, Price: price("80"), Stock: 0}, {ID: 12, SKU: "RN-100", VolumeML: 100, Price: price("120"), Stock: 3}}},
		{ID: 2, Slug: "cedar-man", Name: "cedar man", Brand: "Atelier B", Gender: GenderMen, Family: "woody",
			Concentration: ConcentrationEDT, Notes: []string{"Cedar", "Vetiver"}, Active: true, Popularity: 9,
			RatingAverage: price("4.5"), CreatedAt: base.Add(time.Hour),
			Variants: []Variant{{ID: 21, SKU: "CM-30", VolumeML: 30, Price: price("45"), Stock: 0}}},
		{ID: 3, Slug: "citrus-day", Name: "Citrus Day", Brand: "Maison A", Gender: GenderUnisex, Family: "citrus",
			Concentration: ConcentrationEDC, Notes: []string{"Bergamot"}, Active: true, Popularity: 9,
			RatingAverage: price("3.9"), CreatedAt: base.Add(2 * time.Hour),
			Variants: []Variant{{ID: 31, SKU: "CD-100", VolumeML: 100, Price: price("45"), Stock: 7}}},
		{ID: 4, Slug: "hidden", Name: "Hidden Rose", Brand: "Maison A", Gender: GenderWomen, Family: "floral",
			Concentration: ConcentrationParfum, Notes: []string{"Rose"}, Active: false, CreatedAt: base.Add(3 * time.Hour),
			Variants: []Variant{{ID: 41, SKU: "HR-50", VolumeML: 50, Price: price("200"), Stock: 1}}},
	}
}

func ids(products []*Product) []int64 {
	out := make([]int64, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func apply(t *testing.T, f Filter) []int64 {
	t.Helper()
	n, err := f.Normalize()
	require.NoError(t, err)
	var matched []*Product
	for _, p := range sampleProducts() {
		if n.Matches(p) {
			matched = append(matched, p)
		}
	}
	SortProducts(matched, n.Sort)
	return ids(matched)
}

func TestNormalize_Defaults(t *testing.T) {
	f, err := Filter{Page: -3, PageSize: 500, Brands: []string{" Maison A ", "maison a", ""}}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, SortNewest, f.Sort)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageSize, f.PageSize)
	assert.Equal(t, []string{"maison a"}, f.Brands)

	f, err = Filter{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, f.PageSize)
}

func TestNormalize_Rejects(t *testing.T) {
	_, err := Filter{Sort: "cheapest"}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidSort)

	_, err = Filter{MinPrice: ptr(price("100")), MaxPrice: ptr(price("50"))}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidPriceRange)

	_, err = Filter{MinPrice: ptr(price("-1"))}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidPriceRange)
}

func TestMatches_InactiveHidden(t *testing.T) {
	assert.Equal(t, []int64{3, 2, 1}, apply(t, Filter{}))
}

func TestMatches_OrWithinAndAcross(t *testing.T) {
	assert.Equal(t, []int64{3, 2, 1}, apply(t, Filter{Brands: []string{"maison a", "ATELIER B"}}))
	assert.Equal(t, []int64{1}, apply(t, Filter{Brands: []string{"Maison A"}, Families: []string{"floral"}}))
	assert.Equal(t, []int64{3, 1}, apply(t, Filter{Notes: []string{"rose", "bergamot"}}))
	assert.Empty(t, apply(t, Filter{Genders: []string{"men"}, Families: []string{"floral"}}))
}

func TestMatches_QueryCoversNameBrandNotes(t *testing.T) {
	assert.Equal(t, []int64{1}, apply(t, Filter{Query: "noir"}))
	assert.Equal(t, []int64{2}, apply(t, Filter{Query: "atelier"}))
	assert.Equal(t, []int64{2}, apply(t, Filter{Query: "VETIV"}))
}

func TestMatches_PriceAnyVariant(t *testing.T) {
	// Rose Noir has a 120 bottle and an 80 bottle; 80 is inside the range.
	assert.Equal(t, []int64{1}, apply(t, Filter{MinPrice: ptr(price("60")), MaxPrice: ptr(price("90"))}))
	assert.Equal(t, []int64{3, 2}, apply(t, Filter{MaxPrice: ptr(price("45"))}))
}

func TestMatches_StockAndVolume(t *testing.T) {
	assert.Equal(t, []int64{3, 1}, apply(t, Filter{InStockOnly: true}))
	assert.Equal(t, []int64{3, 1}, apply(t, Filter{VolumesML: []int{100}}))
	assert.Equal(t, []int64{2}, apply(t, Filter{VolumesML: []int{30, 0, 30}}))
}

func TestSortProducts(t *testing.T) {
	cases := []struct {
		sort Sort
		want []int64
	}{
		{SortNewest, []int64{3, 2, 1}},
		// 2 and 3 share the lowest price, so the lower id wins.
		{SortPriceAsc, []int64{2, 3, 1}},
		{SortPriceDesc, []int64{1, 2, 3}},
		{SortPopular, []int64{2, 3, 1}},
		{SortRating, []int64{1, 2, 3}},
		{SortName, []int64{2, 3, 1}},
	}
	for _, tc := range cases {
		t.Run(string(tc.sort), func(t *testing.T) {
			assert.Equal(t, tc.want, apply(t, Filter{Sort: tc.sort}))
		})
	}
}

func TestBuildFacets_ActiveOnly(t *testing.T) {
	f := BuildFacets(sampleProducts())
	assert.Equal(t, []string{"Atelier B", "Maison A"}, f.Brands)
	assert.Equal(t, []string{"bergamot", "cedar", "oud", "rose", "vetiver"}, f.Notes)
	assert.Equal(t, []string{"edc", "edp", "edt"}, f.Concentrations)
	assert.Equal(t, []int{30, 50, 100}, f.VolumesML)
	assert.True(t, f.PriceMin.Equal(price("45")))
	assert.True(t, f.PriceMax.Equal(price("120")))
}
