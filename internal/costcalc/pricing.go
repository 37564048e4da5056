// Package costcalc computes LLM token costs and real-world infrastructure
// costs for mission cycles. All helpers are stateless: costs propagate up
// three levels (call -> step -> cycle -> mission) through summation over the
// structures recorded by the scheduler, never through mutable counters read
// from scattered locations.
package costcalc

// ModelPricing gives the per-token cost of a model, expressed as dollars per
// token (not per thousand, to keep the arithmetic in token_cost exact).
type ModelPricing struct {
	InputPerToken  float64
	OutputPerToken float64
}

// OpenAIPricing is the fixed pricing table backing token_cost. Ported from
// the mission's original cost calculator; update as pricing changes.
var OpenAIPricing = map[string]ModelPricing{
	"gpt-4": {
		InputPerToken:  0.03 / 1000,
		OutputPerToken: 0.06 / 1000,
	},
	"gpt-4-turbo": {
		InputPerToken:  0.01 / 1000,
		OutputPerToken: 0.03 / 1000,
	},
	"gpt-4o": {
		InputPerToken:  0.005 / 1000,
		OutputPerToken: 0.015 / 1000,
	},
	"gpt-4o-mini": {
		InputPerToken:  0.00015 / 1000,
		OutputPerToken: 0.0006 / 1000,
	},
	"gpt-3.5-turbo": {
		InputPerToken:  0.0015 / 1000,
		OutputPerToken: 0.002 / 1000,
	},
}

// DefaultModel is substituted, with a warning, when TokenCost is asked to
// price an unknown model.
const DefaultModel = "gpt-4o-mini"

// ThirdPartyCosts holds monthly pricing estimates (domains are annual prices,
// and payment processing holds per-volume rates and per-transaction fees) for the real-world services DeployAgent and CampaignAgent
// report against. These never affect scheduler accounting (§4.12); they feed
// DeployAgent's infrastructure cost reporting only.
var ThirdPartyCosts = map[string]map[string]float64{
	"hosting": {
		"vercel_pro":     20.0,
		"railway_starter": 5.0,
		"heroku_basic":    7.0,
		"netlify_pro":     19.0,
		"aws_lightsail":   10.0,
	},
	"domains": {
		"namecheap_com":  12.98,
		"godaddy_com":    14.99,
		"google_domains": 12.0,
	},
	"payment_processing": {
		"stripe_rate":  0.029,
		"stripe_fixed": 0.30,
		"paypal_rate":  0.0349,
		"square_rate":  0.029,
	},
	"email_services": {
		"convertkit_creator":  29.0,
		"mailchimp_essentials": 13.0,
		"sendgrid_essentials":  19.95,
		"postmark_starter":     10.0,
	},
	"analytics": {
		"google_analytics": 0.0,
		"mixpanel_growth":  25.0,
		"amplitude_plus":   61.0,
		"hotjar_plus":      39.0,
	},
	"monitoring": {
		"uptimerobot_pro":   7.0,
		"pingdom_starter":   10.0,
		"datadog_pro":       15.0,
		"newrelic_standard": 25.0,
	},
	"cdn": {
		"cloudflare_pro": 20.0,
		"aws_cloudfront": 8.50,
		"bunnycdn":       1.0,
	},
	"database": {
		"planetscale_scaler":  29.0,
		"supabase_pro":        25.0,
		"mongodb_atlas":       9.0,
		"postgresql_heroku":   9.0,
	},
}

// ContentToolCosts prices per-month content-creation tools used by
// CampaignAgent's marketing cost estimate.
var ContentToolCosts = map[string]float64{
	"canva_pro":           12.99,
	"adobe_creative":      52.99,
	"figma_professional":  12.0,
}
