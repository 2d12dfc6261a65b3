package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vendora/vendora-search/internal/domain/filters"
	"github.com/vendora/vendora-search/internal/domain/location"
	"github.com/vendora/vendora-search/internal/domain/search"
	"github.com/vendora/vendora-search/internal/pkg/geocode"
)

// Service orchestrates session lifecycle, location resolution and the
// preview-count pipeline.
type Service struct {
	manager  *Manager
	resolver *location.Resolver
	store    *location.Store
	counter  search.Counter
	debounce time.Duration
}

// NewService creates a session service
func NewService(manager *Manager, resolver *location.Resolver, store *location.Store, counter search.Counter, debounce time.Duration) *Service {
	return &Service{
		manager:  manager,
		resolver: resolver,
		store:    store,
		counter:  counter,
		debounce: debounce,
	}
}

// Create opens a session, or resumes the client's previous one when it is
// still live. The initial location of a fresh session comes from the persisted
// preference when one is live, otherwise from passive IP detection; both can
// come up empty, which leaves the location unset.
func (s *Service) Create(ctx context.Context, clientIP string, req CreateRequest) *Session {
	if sid := s.store.RestoreSessionID(ctx, req.ClientID); sid != "" {
		if sess, err := s.manager.Get(sid); err == nil {
			return sess
		}
	}

	sess := newSession(uuid.NewString(), req.ClientID, req.Category, req.City, s.counter, s.debounce)

	loc := s.store.Restore(ctx, req.ClientID)
	if loc == nil {
		loc = s.resolver.DetectPassively(ctx, clientIP)
	}
	sess.SetLocation(loc)

	s.manager.Put(sess)
	s.store.SaveSessionID(ctx, req.ClientID, sess.ID)
	return sess
}

// Get returns a live session.
func (s *Service) Get(id string) (*Session, error) {
	return s.manager.Get(id)
}

// Delete closes and removes a session.
func (s *Service) Delete(id string) {
	s.manager.Delete(id)
}

// SetLocationText resolves a typed location and persists it as an explicit
// choice.
func (s *Service) SetLocationText(ctx context.Context, id, text string) (*Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}

	state := s.resolver.ResolveFromText(ctx, text)
	sess.SetLocation(state)
	s.store.Save(ctx, sess.ClientID, state)
	return sess, nil
}

// SetLocationPlace resolves an autocomplete selection and persists it.
func (s *Service) SetLocationPlace(ctx context.Context, id string, place geocode.Result) (*Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}

	state := s.resolver.ResolveFromPlace(place)
	sess.SetLocation(state)
	s.store.Save(ctx, sess.ClientID, state)
	return sess, nil
}

// SetLocationDevice resolves device-granted coordinates. Device locations are
// not persisted; they are re-requested each visit.
func (s *Service) SetLocationDevice(ctx context.Context, id string, lat, lng float64) (*Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}

	sess.SetLocation(s.resolver.ResolveFromDevice(ctx, lat, lng))
	return sess, nil
}

// SetLocationDenied handles a refused device geolocation prompt by falling
// back to passive IP detection. A total failure leaves the current location
// untouched.
func (s *Service) SetLocationDenied(ctx context.Context, id, clientIP string) (*Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}

	if state := s.resolver.ResolveFromDeviceDenied(ctx, clientIP); state != nil {
		sess.SetLocation(state)
	}
	return sess, nil
}

// RecenterMap resolves a dragged map center as an explicit selection and
// persists it.
func (s *Service) RecenterMap(ctx context.Context, id string, lat, lng float64) (*Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}

	state := s.resolver.RecenterFromMap(ctx, lat, lng)
	sess.SetLocation(state)
	s.store.Save(ctx, sess.ClientID, state)
	return sess, nil
}

// SetRadius snaps and applies a new search radius. When the location is an
// explicit choice the updated radius is persisted with it.
func (s *Service) SetRadius(ctx context.Context, id string, km float64) (*Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}

	sess.SetRadius(km)
	s.store.Save(ctx, sess.ClientID, sess.Location())
	return sess, nil
}

// SelectDate sets the availability date.
func (s *Service) SelectDate(id, date string) (*Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.SelectDate(date); err != nil {
		return nil, err
	}
	return sess, nil
}

// SetStartTime sets the availability interval start.
func (s *Service) SetStartTime(id, t string) (*Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.SetStartTime(t); err != nil {
		return nil, err
	}
	return sess, nil
}

// SetEndTime sets the availability interval end.
func (s *Service) SetEndTime(id, t string) (*Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.SetEndTime(t); err != nil {
		return nil, err
	}
	return sess, nil
}

// ClearWindow resets the availability picker.
func (s *Service) ClearWindow(id string) (*Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	sess.ClearWindow()
	return sess, nil
}

// UpdateFilters applies a partial filter edit.
func (s *Service) UpdateFilters(id string, p filters.Partial) (*Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	sess.MergeFilters(p)
	return sess, nil
}

// ClearFilters resets all filter dimensions.
func (s *Service) ClearFilters(id string) (*Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	sess.ClearFilters()
	return sess, nil
}

// Apply composes the final query for a session.
func (s *Service) Apply(id string) (search.Query, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.Apply()
}
