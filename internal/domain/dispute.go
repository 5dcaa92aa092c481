package domain

// DisputeState tracks where a deposit sits in the dispute lifecycle.
// Deposits start in Normal; Dispute moves them to Disputed; a Disputed
// deposit settles to Resolved or ChargedBack and never moves again.
type DisputeState string

const (
	DisputeStateNormal      DisputeState = "normal"
	DisputeStateDisputed    DisputeState = "disputed"
	DisputeStateResolved    DisputeState = "resolved"
	DisputeStateChargedBack DisputeState = "charged_back"
)
