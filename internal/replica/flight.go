package replica

// FlightSet tracks which task IDs currently have a remote mutation
// outstanding. An ID is present from the moment its mutation is dispatched
// until the outcome has been reconciled, success or failure.
type FlightSet struct {
	ids map[string]struct{}
}

// NewFlightSet returns an empty in-flight registry.
func NewFlightSet() *FlightSet {
	return &FlightSet{ids: map[string]struct{}{}}
}

// Mark records an outstanding mutation for id.
func (f *FlightSet) Mark(id string) {
	f.ids[id] = struct{}{}
}

// Clear removes the outstanding-mutation record for id.
func (f *FlightSet) Clear(id string) {
	delete(f.ids, id)
}

// InFlight reports whether id has a mutation outstanding.
func (f *FlightSet) InFlight(id string) bool {
	_, ok := f.ids[id]
	return ok
}

// Snapshot returns a copy of the in-flight ID set.
func (f *FlightSet) Snapshot() map[string]struct{} {
	out := make(map[string]struct{}, len(f.ids))
	for id := range f.ids {
		out[id] = struct{}{}
	}
	return out
}

// Len reports how many mutations are outstanding.
func (f *FlightSet) Len() int {
	return len(f.ids)
}
