package util

import (
	"fmt"
	"strings"
)

// ValidateQuantity 验证数量（必须为正且不超过上限）
func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if quantity > 9999 {
		return fmt.Errorf("quantity too large, got %d", quantity)
	}
	return nil
}

// ValidateUnitPrice 验证单价（必须为正数且不超过上限）
func ValidateUnitPrice(price, maxPrice int64) error {
	if price <= 0 {
		return fmt.Errorf("unit price must be positive, got %d", price)
	}
	if maxPrice > 0 && price > maxPrice {
		return fmt.Errorf("unit price exceeds limit %d, got %d", maxPrice, price)
	}
	return nil
}

// ValidateProductRef 验证商品标识（不能为空且长度合理）
func ValidateProductRef(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fmt.Errorf("product ref is empty")
	}
	if len(ref) > 64 {
		return fmt.Errorf("product ref too long, max 64 characters")
	}
	return nil
}
