package state

import "statecraft.ai/internal/protocol"

// ActionOutcome is the resolved result of one proposal: either an applied
// effect or a rejection with its code. Private outcomes (espionage results)
// are surfaced only to the initiating actor's summary, never to the shared
// round narrative.
type ActionOutcome struct {
	Actor string              `json:"actor"`
	Kind  protocol.ActionKind `json:"kind"`

	OK     bool   `json:"ok"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail"`

	Private bool `json:"private,omitempty"`
}

// RoundRecord is the immutable audit entry for one resolved round. Records
// form an append-only history; together with the seed they are sufficient to
// reconstruct the run.
type RoundRecord struct {
	Round     int                       `json:"round"`
	Proposals []protocol.ActionProposal `json:"proposals"`
	Outcomes  []ActionOutcome           `json:"outcomes"`

	// Events holds public events appended during this round (leaks, random
	// events, campaign headlines).
	Events []string `json:"events,omitempty"`

	// Summaries maps character name to the narrative delivered to it.
	Summaries map[string]string `json:"summaries"`

	// Digest is the post-round state digest, used by replay verification.
	Digest string `json:"digest"`
}
