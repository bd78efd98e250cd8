package types

const (
	PlanBasic   = "basic"
	PlanPremium = "premium"
)

// Plan prices in paisa (PKR subunits).
var planPrices = map[string]int64{
	PlanBasic:   75000,
	PlanPremium: 160000,
}

// ResolvePlan maps a requested plan id to the plan charged. Anything not
// recognized falls back to basic.
func ResolvePlan(planID string) (string, int64) {
	if price, ok := planPrices[planID]; ok {
		return planID, price
	}
	return PlanBasic, planPrices[PlanBasic]
}
