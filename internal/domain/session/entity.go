package session

import (
	"sync"
	"time"

	"github.com/vendora/vendora-search/internal/domain/availability"
	"github.com/vendora/vendora-search/internal/domain/filters"
	"github.com/vendora/vendora-search/internal/domain/location"
	"github.com/vendora/vendora-search/internal/domain/search"
)

// Session holds one visitor's live search state: the resolved location, the
// availability window, the filter criteria and the preview-count pipeline
// bound to them. Every mutation re-projects the state into the pipeline so
// the count indicator follows along.
type Session struct {
	ID        string
	ClientID  string
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
	category string
	city     string
	loc      *location.State
	window   availability.Window
	criteria filters.Criteria
	pipeline *search.Pipeline
	frame    search.Update
	subs     map[chan search.Update]bool
	closed   bool
}

func newSession(id, clientID, category, city string, counter search.Counter, debounce time.Duration) *Session {
	now := time.Now()
	s := &Session{
		ID:        id,
		ClientID:  clientID,
		CreatedAt: now,
		lastSeen:  now,
		category:  category,
		city:      city,
		criteria:  filters.New(),
		subs:      make(map[chan search.Update]bool),
	}
	s.pipeline = search.NewPipeline(counter, debounce, s.broadcast)
	return s
}

// Touch marks the session as recently used.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// Expired reports whether the session has been idle past ttl.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen) > ttl
}

// SetLocation replaces the resolved location and recomputes the count.
func (s *Session) SetLocation(loc *location.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loc = loc
	s.observeLocked()
}

// SetRadius snaps the radius onto the allowed set. A radius without a
// location is meaningless and ignored.
func (s *Session) SetRadius(km float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loc == nil {
		return
	}
	s.loc.RadiusKm = location.NormalizeRadius(km)
	s.observeLocked()
}

// Location returns a copy of the current location state, or nil.
func (s *Session) Location() *location.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loc == nil {
		return nil
	}
	loc := *s.loc
	return &loc
}

// SelectDate sets the availability date; previously chosen times persist.
func (s *Session) SelectDate(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.window.SelectDate(date); err != nil {
		return err
	}
	s.observeLocked()
	return nil
}

// SetStartTime sets the interval start. A resulting invalid range is recorded
// on the window, not returned: the value itself was accepted.
func (s *Session) SetStartTime(t string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.window.SetStartTime(t); err != nil {
		return err
	}
	s.observeLocked()
	return nil
}

// SetEndTime sets the interval end.
func (s *Session) SetEndTime(t string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.window.SetEndTime(t); err != nil {
		return err
	}
	s.observeLocked()
	return nil
}

// ClearWindow resets the availability picker.
func (s *Session) ClearWindow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window.Clear()
	s.observeLocked()
}

// MergeFilters applies a partial filter edit.
func (s *Session) MergeFilters(p filters.Partial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria.Merge(p)
	s.observeLocked()
}

// ClearFilters resets every filter dimension to neutral.
func (s *Session) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria.Clear()
	s.observeLocked()
}

// Apply composes the final query. Blocked while the availability window holds
// an invalid time range.
func (s *Session) Apply() (search.Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.window.Validate(); err != nil {
		return nil, ErrWindowInvalid
	}
	return search.Compose(s.loc, s.window, s.criteria, s.category, s.city), nil
}

// Snapshot returns the full session view for the API.
func (s *Session) Snapshot() SessionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	var loc *location.State
	if s.loc != nil {
		copied := *s.loc
		loc = &copied
	}

	return SessionResponse{
		ID:                s.ID,
		Category:          s.category,
		City:              s.city,
		Location:          loc,
		Availability:      s.window,
		AvailabilityState: s.window.State(),
		Filters:           s.criteria,
		ActiveFilters:     s.criteria.ActiveCount(),
		Count:             s.frame,
		RadiusOptions:     location.RadiusOptions(),
	}
}

// CountFrame returns the current preview-count frame.
func (s *Session) CountFrame() search.Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Subscribe registers a live count listener. Slow listeners are skipped, not
// blocked on.
func (s *Session) Subscribe() chan search.Update {
	ch := make(chan search.Update, 8)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	s.subs[ch] = true
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener registered with Subscribe.
func (s *Session) Unsubscribe(ch chan search.Update) {
	s.mu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.mu.Unlock()
}

// Close stops the pipeline and disconnects all listeners.
func (s *Session) Close() {
	s.pipeline.Stop()
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for ch := range s.subs {
			close(ch)
		}
		s.subs = make(map[chan search.Update]bool)
	}
	s.mu.Unlock()
}

func (s *Session) observeLocked() {
	s.lastSeen = time.Now()
	s.pipeline.Observe(search.Project(s.loc, s.window, s.criteria, s.category, s.city))
}

func (s *Session) broadcast(frame search.Update) {
	s.mu.Lock()
	s.frame = frame
	for ch := range s.subs {
		select {
		case ch <- frame:
		default:
		}
	}
	s.mu.Unlock()
}
