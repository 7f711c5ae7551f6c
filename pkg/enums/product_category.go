package enums

import "fmt"

// ProductCategory groups catalog items by garment type.
type ProductCategory string

const (
	ProductCategoryShirt       ProductCategory = "Shirt"
	ProductCategoryPant        ProductCategory = "Pant"
	ProductCategoryJacket      ProductCategory = "Jacket"
	ProductCategorySuits       ProductCategory = "Suits"
	ProductCategoryAccessories ProductCategory = "Accessories"
	ProductCategoryDress       ProductCategory = "Dress"
	ProductCategorySkirt       ProductCategory = "Skirt"
	ProductCategoryTShirt      ProductCategory = "T-Shirt"
	ProductCategoryOther       ProductCategory = "Other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryShirt,
	ProductCategoryPant,
	ProductCategoryJacket,
	ProductCategorySuits,
	ProductCategoryAccessories,
	ProductCategoryDress,
	ProductCategorySkirt,
	ProductCategoryTShirt,
	ProductCategoryOther,
}

// String implements fmt.Stringer.
func (p ProductCategory) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductCategory.
func (p ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
