// Package interaction defines the request/answer vocabulary exchanged
// between the feedback driver and whatever presents proposals to a human
// (or a fixture, in tests): the interaction callback, and the fire-and-
// forget status callback used for progress reporting.
package interaction

import "context"

// RequestKind discriminates the shape of a Request.
type RequestKind byte

const (
	ConfirmProposal      RequestKind = iota // is this nugget a match?
	ChooseFromShortlist                     // pick among several ranked candidates
	PickSpan                                // no candidate fits; let the user mark a custom span
)

// Request carries everything a presenter needs to render a question without
// round-tripping to the DocumentBase: the document text, the attribute
// name, and the candidate nugget(s) inline with their offsets and current
// distance.
type Request struct {
	Kind RequestKind

	AttributeName string
	DocumentName  string
	DocumentText  string

	// Populated for ConfirmProposal and as the first entry for
	// ChooseFromShortlist.
	Start, End int
	Distance   float64

	// Populated for ChooseFromShortlist: additional ranked candidates
	// beyond the first.
	Alternatives []Candidate
}

// Candidate is one ranked alternative nugget offered in a shortlist.
type Candidate struct {
	Start, End int
	Distance   float64
}

// AnswerKind discriminates the shape of an Answer.
type AnswerKind byte

const (
	Confirm AnswerKind = iota
	Reject
	CustomSpan
	NoMatchInDocument
	Stop
)

// Answer is the closed vocabulary a presenter may respond with.
type Answer struct {
	Kind AnswerKind

	// Populated for Confirm when the confirmed span differs from the one
	// offered (i.e. the user picked an alternative from a shortlist).
	Start, End int

	// Populated for CustomSpan: the user-marked span, not among the
	// nuggets already extracted for the document.
	CustomStart, CustomEnd int
}

// Callback presents a Request and blocks until a human (or a fixture)
// supplies an Answer. It may return an error if presenting fails or if ctx
// is cancelled while waiting.
type Callback func(ctx context.Context, req Request) (Answer, error)

// StatusCallback reports pipeline progress. It never blocks the matching
// loop: callers are expected to make it fast (e.g. a non-blocking channel
// send) and the driver does not wait on or retry it.
type StatusCallback func(stage string, progressFraction float64, message string)
