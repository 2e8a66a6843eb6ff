package types

// EventKind tags the path an allocation came from.
type EventKind string

const (
	EventKindActivation EventKind = "activation"
	EventKindPayment    EventKind = "payment"
	EventKindManual     EventKind = "manual"
)

// CountedAllocationKinds is the authoritative set of event kinds that count as
// a completed allocation for the duplicate check. Every place that decides
// "was this event already credited" must consult this set and nothing else.
var CountedAllocationKinds = []EventKind{
	EventKindActivation,
	EventKindPayment,
	EventKindManual,
}
