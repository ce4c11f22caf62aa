// Package confidence implements the pure scoring model for extracted
// entities and relationships. Both functions are total: inputs outside
// their documented ranges are absorbed by clamping, never rejected.
package confidence

// EntityScore computes an entity confidence from its component factors:
// base is the extractor's raw score, contextFactor scales it by the
// quality of the surrounding context, frequencyFactor (unbounded, >= 0)
// can only boost, and methodAgreement modulates within a bounded 20%
// band so a single low agreement signal cannot zero out a strong base.
// The result is clamped to [0, 1].
func EntityScore(base float64, contextFactor float64, frequencyFactor float64, methodAgreement float64) float64 {
	score := base * contextFactor * (1 + 0.2*frequencyFactor) * (0.8 + 0.2*methodAgreement)
	return clamp01(score)
}

// RelationshipScore computes a relationship confidence with weakest
// link semantics: a relationship can never be more trustworthy than its
// weaker endpoint. The endpoint minimum is scaled by the relation
// strength and the contextual support, then clamped to [0, 1].
func RelationshipScore(sourceConfidence float64, targetConfidence float64, relationStrength float64, contextSupport float64) float64 {
	endpoint := sourceConfidence
	if targetConfidence < endpoint {
		endpoint = targetConfidence
	}
	return clamp01(endpoint * relationStrength * contextSupport)
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
