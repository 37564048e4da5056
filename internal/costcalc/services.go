package costcalc

// PaymentTransaction describes one batch of payment-processing volume to be
// priced against a named processor (stripe_rate, paypal_rate, square_rate).
type PaymentTransaction struct {
	Processor         string
	TransactionAmount float64
	TransactionCount  int
}

// ThirdPartyServiceCost prices a single named service within a category.
// Payment processors are usage-based: stripe charges a percentage of volume
// plus a fixed fee per transaction; paypal and square charge percentage only
// (ThirdPartyCosts carries no square_fixed entry, so square's fixed fee is 0). Domain registrations are quoted annually and are converted to a
// monthly figure. Every other category is a flat monthly subscription price.
func ThirdPartyServiceCost(category, service string, txn *PaymentTransaction) float64 {
	prices, ok := ThirdPartyCosts[category]
	if !ok {
		return 0
	}

	if category == "payment_processing" {
		if txn == nil {
			return 0
		}
		rate := prices[txn.Processor+"_rate"]
		switch txn.Processor {
		case "stripe", "square":
			fixed := prices[txn.Processor+"_fixed"]
			return txn.TransactionAmount*rate + float64(txn.TransactionCount)*fixed
		default:
			return txn.TransactionAmount * rate
		}
	}

	price, ok := prices[service]
	if !ok {
		return 0
	}
	if category == "domains" {
		return price / 12.0
	}
	return price
}

// DeploymentConfig names the specific service chosen per infrastructure
// category for a deployment cost estimate. An empty service field falls back
// to that category's default service; a nil PaymentProcessing leaves payment
// processing out of the estimate.
type DeploymentConfig struct {
	Hosting            string
	Domain             string
	EmailService       string
	Analytics          string
	Monitoring         string
	Database           string
	PaymentProcessing  *PaymentTransaction
}

// DeploymentInfrastructureCost sums the monthly cost of the services named in
// cfg, using the defaults DeployAgent reports against when a category is left
// unset: vercel_pro, namecheap_com, convertkit_creator, google_analytics,
// uptimerobot_pro, postgresql_heroku.
func DeploymentInfrastructureCost(cfg DeploymentConfig) float64 {
	hosting := cfg.Hosting
	if hosting == "" {
		hosting = "vercel_pro"
	}
	domain := cfg.Domain
	if domain == "" {
		domain = "namecheap_com"
	}
	email := cfg.EmailService
	if email == "" {
		email = "convertkit_creator"
	}
	analytics := cfg.Analytics
	if analytics == "" {
		analytics = "google_analytics"
	}
	monitoring := cfg.Monitoring
	if monitoring == "" {
		monitoring = "uptimerobot_pro"
	}
	database := cfg.Database
	if database == "" {
		database = "postgresql_heroku"
	}

	total := ThirdPartyServiceCost("hosting", hosting, nil)
	total += ThirdPartyServiceCost("domains", domain, nil)
	total += ThirdPartyServiceCost("email_services", email, nil)
	total += ThirdPartyServiceCost("analytics", analytics, nil)
	total += ThirdPartyServiceCost("monitoring", monitoring, nil)
	total += ThirdPartyServiceCost("database", database, nil)
	if cfg.PaymentProcessing != nil {
		total += ThirdPartyServiceCost("payment_processing", "", cfg.PaymentProcessing)
	}
	return total
}

// CampaignConfig prices a single marketing campaign's estimated monthly spend.
type CampaignConfig struct {
	SocialMediaAdsSpend   float64
	GoogleAdsSpend        float64
	ContentTools          []string
	EmailMarketingSpend   float64
	InfluencerSpend       float64
}

// MarketingCampaignCost sums ad spend, the named content-creation tool
// subscriptions, and email/influencer line items for one campaign.
func MarketingCampaignCost(cfg CampaignConfig) float64 {
	total := cfg.SocialMediaAdsSpend + cfg.GoogleAdsSpend + cfg.EmailMarketingSpend + cfg.InfluencerSpend
	for _, tool := range cfg.ContentTools {
		total += ContentToolCosts[tool]
	}
	return total
}
