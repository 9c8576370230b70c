package summary

// StrategyKind names a synthesis strategy.
type StrategyKind string

const (
	// StrategyStructured assembles the 4-section artifact.
	StrategyStructured StrategyKind = "structured"
	// StrategySinglePass produces one body call plus a headline call.
	StrategySinglePass StrategyKind = "single_pass"
)

// SelectStrategy picks the synthesis strategy for an entity subtype and
// style. Pure: same inputs always yield the same strategy.
func SelectStrategy(subtype EntitySubtype, style Style) (StrategyKind, error) {
	if !validStyle(style) {
		return "", &ConfigurationError{Style: style, Valid: Styles()}
	}
	if subtype == SubtypeStructuredAction {
		return StrategyStructured, nil
	}
	return StrategySinglePass, nil
}
