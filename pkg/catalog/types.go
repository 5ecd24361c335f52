package catalog

import (
	"time"
)

// Tier is a named subscription level. Tiers are totally ordered:
// TierFree < TierBasic < TierPremium.
type Tier string

const (
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// tierRank defines the total order over known tiers. Unknown tiers rank
// below free so a corrupted value always resolves to the most restrictive
// access.
var tierRank = map[Tier]int{
	TierFree:    1,
	TierBasic:   2,
	TierPremium: 3,
}

// Known reports whether the tier is part of the catalog order.
func (t Tier) Known() bool {
	_, ok := tierRank[t]
	return ok
}

// Cmp returns -1, 0 or 1 as t orders before, equal to or after other.
func (t Tier) Cmp(other Tier) int {
	a, b := tierRank[t], tierRank[other]
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less reports whether t is a lower tier than other.
func (t Tier) Less(other Tier) bool {
	return t.Cmp(other) < 0
}

// Tiers returns all known tiers in ascending order.
func Tiers() []Tier {
	return []Tier{TierFree, TierBasic, TierPremium}
}

// Resource is a countable, per-period metered action.
type Resource string

const (
	ResourcePosts              Resource = "posts"
	ResourceAIGenerations      Resource = "ai_generations"
	ResourceAIHookImprovements Resource = "ai_hook_improvements"
	ResourceScheduledPosts     Resource = "scheduled_posts"
	ResourceKnowledgeItems     Resource = "knowledge_items"
	ResourceURLImports         Resource = "url_imports"
	ResourceGemExtractions     Resource = "gem_extractions"
	ResourceVoiceProfiles      Resource = "voice_profiles"
	ResourceVoiceAnalyses      Resource = "voice_analyses"
	ResourceURLHistory         Resource = "url_history"
	ResourceTrackedInfluencers Resource = "tracked_influencers"
	ResourceTrackedPosts       Resource = "tracked_posts"
	ResourceCommentDrafts      Resource = "comment_drafts"
	ResourceTopicSuggestions   Resource = "topic_suggestions"
)

// Unlimited marks a resource with no per-period cap (-1 chosen for SQL
// compatibility). A limit of 0 means the resource is unavailable at the
// tier regardless of the counter.
const Unlimited int64 = -1

// Feature is a tier-gated capability flag.
type Feature string

const (
	FeatureEngagementAnalytics       Feature = "engagement_analytics"
	FeatureFrameworkEditor           Feature = "framework_editor"
	FeatureFileUpload                Feature = "file_upload"
	FeatureKnowledgeInformedAI       Feature = "knowledge_informed_ai"
	FeatureVoiceMatchedGeneration    Feature = "voice_matched_generation"
	FeatureFavoriteURLs              Feature = "favorite_urls"
	FeatureSaveURLToVault            Feature = "save_url_to_vault"
	FeatureLinkedInConnection        Feature = "linkedin_connection"
	FeatureDirectPublish             Feature = "direct_publish"
	FeatureEngagementTimer           Feature = "engagement_timer"
	FeatureBrowserNotifications      Feature = "browser_notifications"
	FeatureCommentDrafting           Feature = "comment_drafting"
	FeatureCommentVariations         Feature = "comment_variations"
	FeatureDiscoveryAssistant        Feature = "discovery_assistant"
	FeatureEngagementReminders       Feature = "engagement_reminders"
	FeatureAnalyticsByPillar         Feature = "analytics_by_pillar"
	FeatureAnalyticsByFramework      Feature = "analytics_by_framework"
	FeatureAnalyticsTrends           Feature = "analytics_trends"
	FeatureAnalyticsTopPosts         Feature = "analytics_top_posts"
	FeatureAIStrategyRecommendations Feature = "ai_strategy_recommendations"
	FeatureEngagementHeatmap         Feature = "engagement_heatmap"
	FeatureExportReports             Feature = "export_reports"
	FeatureEmailSupport              Feature = "email_support"
	FeaturePrioritySupport           Feature = "priority_support"
	FeatureDataExport                Feature = "data_export"
	FeatureAPIAccess                 Feature = "api_access"
)

// Currency is a lowercase ISO 4217 currency code.
type Currency string

const (
	CurrencyAUD Currency = "aud"
	CurrencyUSD Currency = "usd"
	CurrencyEUR Currency = "eur"
	CurrencyGBP Currency = "gbp"
)

// DefaultCurrency is used when a caller does not specify one.
const DefaultCurrency = CurrencyAUD

// Money is a monetary amount in the smallest currency unit
// (cents for USD: $19.00 is Amount 1900).
type Money struct {
	Amount   int64    `json:"amount"`
	Currency Currency `json:"currency"`
}

// BillingCycle is the billing frequency of a paid subscription.
// Free subscriptions carry no cycle.
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleAnnual  BillingCycle = "annual"
)

// Valid reports whether the cycle is a known billing frequency.
func (c BillingCycle) Valid() bool {
	return c == CycleMonthly || c == CycleAnnual
}

// PeriodEnd returns the end of a billing period starting at from.
// Monthly periods run 30 days, annual periods 365 days.
func (c BillingCycle) PeriodEnd(from time.Time) time.Time {
	if c == CycleAnnual {
		return from.AddDate(0, 0, 365)
	}
	return from.AddDate(0, 0, 30)
}

// PricePair holds the monthly and annual price of a tier in one currency.
type PricePair struct {
	Monthly Money `json:"monthly"`
	Annual  Money `json:"annual"`
}

// Entry describes one tier: its cumulative feature set, per-period resource
// limits and per-currency prices. Entries are immutable once the catalog is
// built.
type Entry struct {
	Tier     Tier
	Features map[Feature]struct{}
	Limits   map[Resource]int64
	Pricing  map[Currency]PricePair
}
