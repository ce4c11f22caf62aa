package model

// Parameters is the open configuration bag forwarded verbatim to every
// extraction capability. Capability specific settings that go beyond
// the shared fields travel in Extra.
type Parameters struct {
	// SourceID tags the originating text or message. It flows into the
	// resulting collection and into every recorded observation.
	SourceID string `json:"source_id,omitempty"`
	// Extra carries free form capability specific values.
	Extra Metadata `json:"extra,omitempty"`
}
