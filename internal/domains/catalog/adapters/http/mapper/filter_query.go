package mapper

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"
	"github.com/shopspring/decimal"

	"github.com/aromaline/storefront/internal/domains/catalog/domain"
)

// Query parameter names accepted by the product listing.
const (
	ParamQuery          = "q"
	ParamBrand          = "brand"
	ParamGender         = "gender"
	ParamFamily         = "family"
	ParamNote           = "note"
	ParamConcentration  = "concentration"
	ParamMinPrice       = "minPrice"
	ParamMaxPrice       = "maxPrice"
	ParamVolume         = "volume"
	ParamInStock        = "inStock"
	ParamSort           = "sort"
	ParamPage           = "page"
	ParamPageSize       = "pageSize"
	invalidValueMessage = "invalid value"
)

// ParseFilter reads a product filter from query parameters. List parameters
// accept repeated keys and comma separated values. Field errors are keyed by
// parameter name; the result is nil when every parameter parsed.
func ParseFilter(values url.Values) (domain.Filter, map[string]string) {
	var f domain.Filter
	fields := map[string]string{}

	bindString := func(name string, dest *string) {
		if err := runtime.BindQueryParameter("form", true, false, name, values, dest); err != nil {
			fields[name] = invalidValueMessage
		}
	}
	bindList := func(name string) []string {
		var raw []string
		if err := runtime.BindQueryParameter("form", true, false, name, values, &raw); err != nil {
			fields[name] = invalidValueMessage
			return nil
		}
		return splitCommaValues(raw)
	}
	bindInt := func(name string, dest *int) {
		if err := runtime.BindQueryParameter("form", true, false, name, values, dest); err != nil {
			fields[name] = "must be an integer"
		}
	}
	bindPrice := func(name string) *decimal.Decimal {
		var raw string
		bindString(name, &raw)
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			fields[name] = "must be a decimal number"
			return nil
		}
		return &d
	}

	bindString(ParamQuery, &f.Query)
	f.Brands = bindList(ParamBrand)
	f.Genders = bindList(ParamGender)
	f.Families = bindList(ParamFamily)
	f.Notes = bindList(ParamNote)
	f.Concentrations = bindList(ParamConcentration)
	f.MinPrice = bindPrice(ParamMinPrice)
	f.MaxPrice = bindPrice(ParamMaxPrice)

	for _, raw := range bindList(ParamVolume) {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			fields[ParamVolume] = "must be a positive integer"
			continue
		}
		f.VolumesML = append(f.VolumesML, v)
	}

	var inStock string
	bindString(ParamInStock, &inStock)
	switch strings.ToLower(strings.TrimSpace(inStock)) {
	case "", "0", "false", "no":
	case "1", "true", "yes", "on":
		f.InStockOnly = true
	default:
		fields[ParamInStock] = "must be a boolean"
	}

	var sortBy string
	bindString(ParamSort, &sortBy)
	f.Sort = domain.Sort(sortBy)
	bindInt(ParamPage, &f.Page)
	bindInt(ParamPageSize, &f.PageSize)

	if len(fields) == 0 {
		return f, nil
	}
	return f, fields
}

func splitCommaValues(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
