package market

import "testing"

// ==================== 手续费规则 ====================

// TestFeeCompute_BaseRate 测试 5% 基础费率
func TestFeeCompute_BaseRate(t *testing.T) {
	p := DefaultFeePolicy

	// 500 * 5% = 25，在上下限之间
	if fee := p.Compute(500, false); fee != 25 {
		t.Errorf("Compute(500) = %d, want 25", fee)
	}
	if fee := p.Compute(2000, false); fee != 100 {
		t.Errorf("Compute(2000) = %d, want 100", fee)
	}
}

// TestFeeCompute_Floor 测试下限：小额交易也要收满 10 点
func TestFeeCompute_Floor(t *testing.T) {
	p := DefaultFeePolicy

	testCases := []int64{20, 100, 199}
	for _, total := range testCases {
		if fee := p.Compute(total, false); fee != 10 {
			t.Errorf("Compute(%d) = %d, want 10 (floor)", total, fee)
		}
	}
}

// TestFeeCompute_Ceiling 测试上限：大额交易最多收 500 点
func TestFeeCompute_Ceiling(t *testing.T) {
	p := DefaultFeePolicy

	testCases := []int64{10001, 50000, 1000000}
	for _, total := range testCases {
		if fee := p.Compute(total, false); fee != 500 {
			t.Errorf("Compute(%d) = %d, want 500 (ceiling)", total, fee)
		}
	}
}

// TestFeeCompute_VIP VIP 在夹完上下限之后打五折，不再重新夹
func TestFeeCompute_VIP(t *testing.T) {
	p := DefaultFeePolicy

	// 500 * 5% = 25 -> VIP 12
	if fee := p.Compute(500, true); fee != 12 {
		t.Errorf("Compute(500, vip) = %d, want 12", fee)
	}
	// 下限 10 -> VIP 5，低于下限也不回夹
	if fee := p.Compute(100, true); fee != 5 {
		t.Errorf("Compute(100, vip) = %d, want 5", fee)
	}
	// 上限 500 -> VIP 250
	if fee := p.Compute(100000, true); fee != 250 {
		t.Errorf("Compute(100000, vip) = %d, want 250", fee)
	}
}

// TestFeeCompute_NeverExceedsTotal 手续费不能超过交易总额
func TestFeeCompute_NeverExceedsTotal(t *testing.T) {
	p := DefaultFeePolicy

	// 总价 5，按下限该收 10，只能收 5
	if fee := p.Compute(5, false); fee != 5 {
		t.Errorf("Compute(5) = %d, want 5", fee)
	}
}
