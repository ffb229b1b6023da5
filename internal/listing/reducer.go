package listing

// Action is a state transition applied by Reduce
type Action interface {
	action()
}

// SetCampus changes the campus filter; it ends any distance sort
type SetCampus struct{ Campus CampusFilter }

// ToggleView flips between list and map
type ToggleView struct{}

// ToggleShowAll expands or collapses the paginated list
type ToggleShowAll struct{}

// SetDistanceSort turns distance sorting on or off
type SetDistanceSort struct{ Active bool }

// Restore applies a state decoded from the URL after navigation
type Restore struct{ State ViewState }

func (SetCampus) action()       {}
func (ToggleView) action()      {}
func (ToggleShowAll) action()   {}
func (SetDistanceSort) action() {}
func (Restore) action()         {}

// Reduce returns the state after a. Every user-driven change to the
// filter, view mode or sort collapses ShowAll; Restore reproduces the
// navigated state exactly and keeps DistanceSort.
func Reduce(s ViewState, a Action) ViewState {
	switch a := a.(type) {
	case SetCampus:
		s.Campus = a.Campus
		s.DistanceSort = false
		s.ShowAll = false
	case ToggleView:
		s.View = s.View.Toggle()
		s.ShowAll = false
	case ToggleShowAll:
		s.ShowAll = !s.ShowAll
	case SetDistanceSort:
		if s.DistanceSort == a.Active {
			return s
		}
		s.DistanceSort = a.Active
		s.ShowAll = false
	case Restore:
		s.Campus = a.State.Campus
		s.View = a.State.View
		s.ShowAll = a.State.ShowAll
	}
	return s
}
