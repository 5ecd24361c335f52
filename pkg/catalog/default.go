package catalog

// featureSet builds a set from a feature list.
func featureSet(features ...Feature) map[Feature]struct{} {
	set := make(map[Feature]struct{}, len(features))
	for _, f := range features {
		set[f] = struct{}{}
	}
	return set
}

var freeFeatures = []Feature{
	FeatureEngagementAnalytics,
}

var basicFeatures = append(slicesClone(freeFeatures),
	FeatureFrameworkEditor,
	FeatureFileUpload,
	FeatureKnowledgeInformedAI,
	FeatureVoiceMatchedGeneration,
	FeatureFavoriteURLs,
	FeatureSaveURLToVault,
	FeatureLinkedInConnection,
	FeatureDirectPublish,
	FeatureEngagementTimer,
	FeatureBrowserNotifications,
	FeatureCommentDrafting,
	FeatureDiscoveryAssistant,
	FeatureAnalyticsByPillar,
	FeatureAnalyticsByFramework,
	FeatureAnalyticsTrends,
	FeatureAnalyticsTopPosts,
	FeatureEmailSupport,
)

var premiumFeatures = append(slicesClone(basicFeatures),
	FeatureCommentVariations,
	FeatureEngagementReminders,
	FeatureAIStrategyRecommendations,
	FeatureEngagementHeatmap,
	FeatureExportReports,
	FeaturePrioritySupport,
	FeatureDataExport,
	FeatureAPIAccess,
)

func slicesClone(fs []Feature) []Feature {
	out := make([]Feature, len(fs))
	copy(out, fs)
	return out
}

func price(cur Currency, monthly, annual int64) PricePair {
	return PricePair{
		Monthly: Money{Amount: monthly, Currency: cur},
		Annual:  Money{Amount: annual, Currency: cur},
	}
}

var defaultCatalog = MustNew(map[Tier]Entry{
	TierFree: {
		Features: featureSet(freeFeatures...),
		Limits: map[Resource]int64{
			ResourcePosts:              5,
			ResourceAIGenerations:      3,
			ResourceAIHookImprovements: 3,
			ResourceScheduledPosts:     2,
			ResourceKnowledgeItems:     10,
			ResourceURLImports:         3,
			ResourceGemExtractions:     2,
			ResourceVoiceProfiles:      1,
			ResourceVoiceAnalyses:      1,
			ResourceURLHistory:         5,
			ResourceTrackedInfluencers: 3,
			ResourceTrackedPosts:       5,
			ResourceCommentDrafts:      0,
			ResourceTopicSuggestions:   3,
		},
	},
	TierBasic: {
		Features: featureSet(basicFeatures...),
		Limits: map[Resource]int64{
			ResourcePosts:              30,
			ResourceAIGenerations:      20,
			ResourceAIHookImprovements: 15,
			ResourceScheduledPosts:     10,
			ResourceKnowledgeItems:     50,
			ResourceURLImports:         20,
			ResourceGemExtractions:     10,
			ResourceVoiceProfiles:      3,
			ResourceVoiceAnalyses:      5,
			ResourceURLHistory:         25,
			ResourceTrackedInfluencers: 15,
			ResourceTrackedPosts:       25,
			ResourceCommentDrafts:      10,
			ResourceTopicSuggestions:   Unlimited,
		},
		Pricing: map[Currency]PricePair{
			CurrencyAUD: price(CurrencyAUD, 2900, 29000),
			CurrencyUSD: price(CurrencyUSD, 1900, 19000),
			CurrencyEUR: price(CurrencyEUR, 1900, 19000),
			CurrencyGBP: price(CurrencyGBP, 1500, 15000),
		},
	},
	TierPremium: {
		Features: featureSet(premiumFeatures...),
		Limits: map[Resource]int64{
			ResourcePosts:              Unlimited,
			ResourceAIGenerations:      Unlimited,
			ResourceAIHookImprovements: Unlimited,
			ResourceScheduledPosts:     Unlimited,
			ResourceKnowledgeItems:     Unlimited,
			ResourceURLImports:         Unlimited,
			ResourceGemExtractions:     Unlimited,
			ResourceVoiceProfiles:      Unlimited,
			ResourceVoiceAnalyses:      Unlimited,
			ResourceURLHistory:         Unlimited,
			ResourceTrackedInfluencers: Unlimited,
			ResourceTrackedPosts:       Unlimited,
			ResourceCommentDrafts:      Unlimited,
			ResourceTopicSuggestions:   Unlimited,
		},
		Pricing: map[Currency]PricePair{
			CurrencyAUD: price(CurrencyAUD, 7900, 79000),
			CurrencyUSD: price(CurrencyUSD, 4900, 49000),
			CurrencyEUR: price(CurrencyEUR, 4900, 49000),
			CurrencyGBP: price(CurrencyGBP, 3900, 39000),
		},
	},
})

// Default returns the built-in production tier catalog.
func Default() *Catalog {
	return defaultCatalog
}
