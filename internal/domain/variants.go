package domain

import "errors"

// ErrNoVariant indicates no purchasable variant could be resolved for a
// product.
var ErrNoVariant = errors.New("domain: no variant resolved for product")

// ResolveVariantID picks the variant to add for a product. Priority order:
//
//  1. an explicit override from the caller
//  2. the product's default variant
//  3. the first entry of the product's variant list
//  4. the product's flat variant_id field
//
// The zero value means "unset" at every level; when nothing resolves,
// ErrNoVariant is returned.
func ResolveVariantID(product Product, override int64) (int64, error) {
	if override > 0 {
		return override, nil
	}
	if product.DefaultVariant != nil && product.DefaultVariant.ID > 0 {
		return product.DefaultVariant.ID, nil
	}
	if len(product.Variants) > 0 && product.Variants[0].ID > 0 {
		return product.Variants[0].ID, nil
	}
	if product.VariantID > 0 {
		return product.VariantID, nil
	}
	return 0, ErrNoVariant
}
