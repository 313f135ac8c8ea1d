// Package prefs models the client-held preference state the recommendation
// engine scores against. The server never stores it; it arrives with each
// request and mutation helpers exist for the owning client's benefit.
package prefs

import (
	"fmt"
	"time"
)

// CurrentVersion is the preference document version this code writes.
// Version 1 carried three-valued reactions; Upgrade migrates them once.
const CurrentVersion = 2

// Legacy reaction values from version 1 documents.
const (
	ReactionLove    = "love"
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Watched records that a title was watched, with the genre set as it was
// at the time of the action. Later catalog corrections never rewrite past
// signal.
type Watched struct {
	At     time.Time `json:"at"`
	Genres []string  `json:"genres,omitempty"`
}

// Rating is an active star rating for a title. A slug carries at most one.
type Rating struct {
	Stars  int       `json:"stars"`
	At     time.Time `json:"at"`
	Genres []string  `json:"genres,omitempty"`
}

// Reaction is the version-1 shape, kept only so Upgrade can read it.
type Reaction struct {
	Value  string    `json:"value"`
	At     time.Time `json:"at"`
	Genres []string  `json:"genres,omitempty"`
}

// State is the whole preference document.
type State struct {
	Version   int                 `json:"version"`
	Watched   map[string]Watched  `json:"watched,omitempty"`
	Ratings   map[string]Rating   `json:"ratings,omitempty"`
	Reactions map[string]Reaction `json:"reactions,omitempty"`
}

// Empty reports whether the state carries no signal at all.
func (s *State) Empty() bool {
	return len(s.Watched) == 0 && len(s.Ratings) == 0
}

// Upgrade migrates a version-1 document in place: reactions become star
// ratings (love 5, like 4, dislike 1) without overwriting any rating the
// document already carries, then the reactions block is dropped. Running it
// on a current document is a no-op.
func (s *State) Upgrade() {
	if s.Version >= CurrentVersion {
		s.Reactions = nil
		return
	}
	for slug, r := range s.Reactions {
		if _, exists := s.Ratings[slug]; exists {
			continue
		}
		var stars int
		switch r.Value {
		case ReactionLove:
			stars = 5
		case ReactionLike:
			stars = 4
		case ReactionDislike:
			stars = 1
		default:
			continue
		}
		if s.Ratings == nil {
			s.Ratings = make(map[string]Rating)
		}
		s.Ratings[slug] = Rating{Stars: stars, At: r.At, Genres: r.Genres}
	}
	s.Reactions = nil
	s.Version = CurrentVersion
}

// SetRating sets the star rating for a slug. Setting the value already
// stored removes the entry instead: the action is a toggle, and a slug
// never carries two ratings.
func (s *State) SetRating(slug string, stars int, genres []string, now time.Time) error {
	if stars < 1 || stars > 5 {
		return fmt.Errorf("stars must be in [1,5], got %d", stars)
	}
	if existing, ok := s.Ratings[slug]; ok && existing.Stars == stars {
		delete(s.Ratings, slug)
		return nil
	}
	if s.Ratings == nil {
		s.Ratings = make(map[string]Rating)
	}
	s.Ratings[slug] = Rating{Stars: stars, At: now, Genres: genres}
	return nil
}

// MarkWatched records a watch with the genres at the time of the action.
func (s *State) MarkWatched(slug string, genres []string, now time.Time) {
	if s.Watched == nil {
		s.Watched = make(map[string]Watched)
	}
	s.Watched[slug] = Watched{At: now, Genres: genres}
}

// Unwatch removes a watch entry.
func (s *State) Unwatch(slug string) {
	delete(s.Watched, slug)
}
