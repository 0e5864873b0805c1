package market

// FeePolicy 平台手续费规则：按比例收取，带上下限，VIP 半价
type FeePolicy struct {
	RateBP int   // 费率，万分比，500 = 5%
	MinFee int64 // 下限（点数）
	MaxFee int64 // 上限（点数）
}

// DefaultFeePolicy 5% 费率，下限 10 点，上限 500 点
var DefaultFeePolicy = FeePolicy{RateBP: 500, MinFee: 10, MaxFee: 500}

// Compute 计算一笔交易的手续费。
// 先按比例算，再夹到 [MinFee, MaxFee]；VIP 在夹完之后减半，不再重新夹。
// 手续费不会超过交易总额本身。
func (p FeePolicy) Compute(totalAmount int64, vip bool) int64 {
	fee := totalAmount * int64(p.RateBP) / 10000
	if fee < p.MinFee {
		fee = p.MinFee
	}
	if fee > p.MaxFee {
		fee = p.MaxFee
	}
	if vip {
		fee = fee / 2
	}
	// 小额交易下限可能超过总价，此时收不满下限
	if fee > totalAmount {
		fee = totalAmount
	}
	return fee
}
