package costcalc

import (
	"math"
	"testing"
)

func approxEqual(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTokenCostKnownModel(t *testing.T) {
	got := TokenCost(1000, 500, "gpt-4o")
	want := 1000*OpenAIPricing["gpt-4o"].InputPerToken + 500*OpenAIPricing["gpt-4o"].OutputPerToken
	approxEqual(t, got, want)
}

func TestTokenCostUnknownModelFallsBackToDefault(t *testing.T) {
	got := TokenCost(100, 100, "not-a-real-model")
	want := TokenCost(100, 100, DefaultModel)
	approxEqual(t, got, want)
}

func TestWorkflowStepCostIncludesSubOperations(t *testing.T) {
	main := []CallCost{{TokenUsage: TokenUsage{InputTokens: 100, OutputTokens: 50, Model: "gpt-4o-mini"}}}
	sub := []CallCost{{DirectCost: 0.02}}
	got := WorkflowStepCost(main, sub)
	want := callCostSum(main) + 0.02
	approxEqual(t, got, want)
}

func TestCycleCostSumsAllFourContributions(t *testing.T) {
	in := CycleCostInputs{
		Planning: map[string]CallCost{
			"CEO-Agent": {TokenUsage: TokenUsage{InputTokens: 200, OutputTokens: 100, Model: "gpt-4o"}},
		},
		Steps: map[string][]CallCost{
			"ScanAgent": {{TokenUsage: TokenUsage{InputTokens: 300, OutputTokens: 150, Model: "gpt-4o-mini"}}},
		},
		Review: map[string]CallCost{
			"CFO-Agent": {DirectCost: 0.01},
		},
		DirectCosts: 1.50,
	}
	got := CycleCost(in)
	want := CSuitePlanningCost(in.Planning) + CSuiteReviewCost(in.Review) + 1.50
	for _, calls := range in.Steps {
		want += callCostSum(calls)
	}
	approxEqual(t, got, want)
}

func TestMissionCostSumsCycles(t *testing.T) {
	cycle := CycleCostInputs{DirectCosts: 2.0}
	got := MissionCost([]CycleCostInputs{cycle, cycle, cycle})
	approxEqual(t, got, 6.0)
}

func TestBreakdownCycleCostMatchesCycleCostTotal(t *testing.T) {
	in := CycleCostInputs{
		Planning:    map[string]CallCost{"CEO-Agent": {DirectCost: 1}},
		Steps:       map[string][]CallCost{"ScanAgent": {{DirectCost: 2}}},
		Review:      map[string]CallCost{"CFO-Agent": {DirectCost: 3}},
		DirectCosts: 4,
	}
	b := BreakdownCycleCost(in)
	approxEqual(t, b.Planning+b.Workflow+b.Review+b.Other, CycleCost(in))
}

func TestThirdPartyServiceCostStripeAddsFixedFeePerTransaction(t *testing.T) {
	got := ThirdPartyServiceCost("payment_processing", "", &PaymentTransaction{
		Processor:         "stripe",
		TransactionAmount: 1000,
		TransactionCount:  10,
	})
	want := 1000*ThirdPartyCosts["payment_processing"]["stripe_rate"] + 10*ThirdPartyCosts["payment_processing"]["stripe_fixed"]
	approxEqual(t, got, want)
}

func TestThirdPartyServiceCostPaypalHasNoFixedFee(t *testing.T) {
	got := ThirdPartyServiceCost("payment_processing", "", &PaymentTransaction{
		Processor:         "paypal",
		TransactionAmount: 1000,
		TransactionCount:  10,
	})
	want := 1000 * ThirdPartyCosts["payment_processing"]["paypal_rate"]
	approxEqual(t, got, want)
}

func TestThirdPartyServiceCostDomainIsConvertedToMonthly(t *testing.T) {
	got := ThirdPartyServiceCost("domains", "namecheap_com", nil)
	want := ThirdPartyCosts["domains"]["namecheap_com"] / 12.0
	approxEqual(t, got, want)
}

func TestDeploymentInfrastructureCostUsesDefaultsWhenUnset(t *testing.T) {
	got := DeploymentInfrastructureCost(DeploymentConfig{})
	want := ThirdPartyServiceCost("hosting", "vercel_pro", nil) +
		ThirdPartyServiceCost("domains", "namecheap_com", nil) +
		ThirdPartyServiceCost("email_services", "convertkit_creator", nil) +
		ThirdPartyServiceCost("analytics", "google_analytics", nil) +
		ThirdPartyServiceCost("monitoring", "uptimerobot_pro", nil) +
		ThirdPartyServiceCost("database", "postgresql_heroku", nil)
	approxEqual(t, got, want)
}

func TestMarketingCampaignCostSumsAdsAndTools(t *testing.T) {
	got := MarketingCampaignCost(CampaignConfig{
		SocialMediaAdsSpend: 100,
		GoogleAdsSpend:      50,
		ContentTools:        []string{"canva_pro", "figma_professional"},
		EmailMarketingSpend: 20,
		InfluencerSpend:     30,
	})
	want := 100 + 50 + 20 + 30 + ContentToolCosts["canva_pro"] + ContentToolCosts["figma_professional"]
	approxEqual(t, got, want)
}

func TestFormatCostSummaryOmitsZeroCategories(t *testing.T) {
	s := FormatCostSummary(5.5, &CostBreakdown{Planning: 5.5})
	if want := "$5.5000 (csuite_planning: $5.5000)"; s != want {
		t.Fatalf("expected %q, got %q", want, s)
	}
}
