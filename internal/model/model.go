package model

import "time"

// Access kinds for a streaming offer.
const (
	AccessFree         = "free"
	AccessSubscription = "subscription"
)

// Service is one place a movie can be watched.
type Service struct {
	Name   string `json:"name"`
	Access string `json:"access"`
	URL    string `json:"url,omitempty"`
}

// Movie is the canonical, source-independent representation of a title.
// Instances are rebuilt wholesale on every catalog refresh and treated as
// immutable once published in a snapshot.
type Movie struct {
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Year            int       `json:"year,omitempty"`
	Genres          []string  `json:"genres,omitempty"`
	Rating          *float64  `json:"rating,omitempty"`
	RuntimeMinutes  int       `json:"runtime_minutes,omitempty"`
	Synopsis        string    `json:"synopsis,omitempty"`
	PosterURL       string    `json:"poster_url,omitempty"`
	Services        []Service `json:"services"`
	IsFree          bool      `json:"is_free"`
	HasSubscription bool      `json:"has_subscription"`
}

// HasGenre reports whether g is in the movie's genre set.
func (m Movie) HasGenre(g string) bool {
	for _, have := range m.Genres {
		if have == g {
			return true
		}
	}
	return false
}

// RawRecord is the normalized output shape of a source adapter, one record
// per (title, service, access) observation. Only Title or ExternalID is
// required; everything else is best-effort.
type RawRecord struct {
	Title          string
	ExternalID     string
	Year           int
	Genres         []string
	Rating         *float64
	RuntimeMinutes int
	Synopsis       string
	PosterURL      string
	ServiceName    string
	Access         string
	URL            string
}

// CacheSnapshot is the merged catalog at a point in time. Movie order is
// first-seen order of each slug, stable across reads for pagination.
type CacheSnapshot struct {
	Movies     []Movie   `json:"movies"`
	FetchedAt  time.Time `json:"fetched_at"`
	TTLSeconds int       `json:"ttl_seconds"`
}

// ExpiresAt is the instant the snapshot becomes stale.
func (s CacheSnapshot) ExpiresAt() time.Time {
	return s.FetchedAt.Add(time.Duration(s.TTLSeconds) * time.Second)
}

// StaleAt reports whether the snapshot is past its expiry at the given time.
// A stale snapshot remains servable until replaced.
func (s CacheSnapshot) StaleAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt())
}

// FindBySlug returns the movie with the given slug, if present.
func (s CacheSnapshot) FindBySlug(slug string) (Movie, bool) {
	for _, m := range s.Movies {
		if m.Slug == slug {
			return m, true
		}
	}
	return Movie{}, false
}
