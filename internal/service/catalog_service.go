// Package service provides the business logic layer for browsing the catalog.
package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/glebovdev/tunequeue/internal/api"
	"github.com/glebovdev/tunequeue/internal/cache"
	"github.com/glebovdev/tunequeue/internal/httpclient"
	"github.com/glebovdev/tunequeue/internal/track"
)

const (
	imageLoadTimeout = 15 * time.Second
	catalogTimeout   = 30 * time.Second
)

// Catalog is the remote source of track lists.
type Catalog interface {
	GetSongs(ctx context.Context) ([]track.Track, error)
	SearchSongs(ctx context.Context, query string) ([]track.Track, error)
	GetLikedSongs(ctx context.Context) ([]track.Track, error)
	GetAlbum(ctx context.Context, id string) (*api.Album, error)
}

// Source identifies which catalog view the current list came from.
type Source int

const (
	SourceNone Source = iota
	SourceLibrary
	SourceSearch
	SourceLiked
	SourceAlbum
)

func (s Source) String() string {
	switch s {
	case SourceLibrary:
		return "Library"
	case SourceSearch:
		return "Search"
	case SourceLiked:
		return "Liked"
	case SourceAlbum:
		return "Album"
	default:
		return ""
	}
}

type view struct {
	source Source
	arg    string // search query or album id
	title  string
}

// CatalogService holds the track list currently on screen, refreshes it in
// the background and loads artwork through the disk cache.
type CatalogService struct {
	catalog       Catalog
	http          *resty.Client
	tracks        []track.Track
	view          view
	mu            sync.RWMutex
	imageCache    *cache.Cache
	refreshTicker *time.Ticker
	stopRefresh   chan struct{}
	onRefresh     func([]track.Track)
}

// NewCatalogService creates a CatalogService backed by the given catalog.
func NewCatalogService(catalog Catalog) *CatalogService {
	imageCache, err := cache.NewCache()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize artwork cache, artwork will not be cached")
	}

	if imageCache != nil {
		go func() {
			if err := imageCache.CleanExpired(); err != nil {
				log.Debug().Err(err).Msg("Failed to clean expired cache")
			}
		}()
	}

	return newCatalogService(catalog, imageCache)
}

func newCatalogService(catalog Catalog, imageCache *cache.Cache) *CatalogService {
	return &CatalogService{
		catalog:    catalog,
		http:       httpclient.New(imageLoadTimeout),
		imageCache: imageCache,
	}
}

// LoadLibrary fetches the full library, sorted by artist, album and title.
func (s *CatalogService) LoadLibrary(ctx context.Context) ([]track.Track, error) {
	return s.load(ctx, view{source: SourceLibrary, title: "Library"})
}

// Search fetches the tracks matching query in the catalog's relevance order.
// An empty query shows the library.
func (s *CatalogService) Search(ctx context.Context, query string) ([]track.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.LoadLibrary(ctx)
	}
	return s.load(ctx, view{source: SourceSearch, arg: query, title: fmt.Sprintf("Search: %s", query)})
}

// Liked fetches the user's liked tracks.
func (s *CatalogService) Liked(ctx context.Context) ([]track.Track, error) {
	return s.load(ctx, view{source: SourceLiked, title: "Liked"})
}

// Album fetches the tracks of an album in album order.
func (s *CatalogService) Album(ctx context.Context, id string) ([]track.Track, error) {
	return s.load(ctx, view{source: SourceAlbum, arg: id})
}

func (s *CatalogService) load(ctx context.Context, v view) ([]track.Track, error) {
	tracks, title, err := s.fetch(ctx, v)
	if err != nil {
		return nil, err
	}
	v.title = title

	s.mu.Lock()
	s.tracks = tracks
	s.view = v
	s.mu.Unlock()

	return copyTracks(tracks), nil
}

func (s *CatalogService) fetch(ctx context.Context, v view) ([]track.Track, string, error) {
	if s.catalog == nil {
		return nil, "", errors.New("catalog is not configured")
	}

	switch v.source {
	case SourceLibrary:
		tracks, err := s.catalog.GetSongs(ctx)
		if err != nil {
			return nil, "", err
		}
		sortLibrary(tracks)
		return tracks, v.title, nil
	case SourceSearch:
		tracks, err := s.catalog.SearchSongs(ctx, v.arg)
		return tracks, v.title, err
	case SourceLiked:
		tracks, err := s.catalog.GetLikedSongs(ctx)
		return tracks, v.title, err
	case SourceAlbum:
		album, err := s.catalog.GetAlbum(ctx, v.arg)
		if err != nil {
			return nil, "", err
		}
		tracks := make([]track.Track, len(album.Songs))
		for i, t := range album.Songs {
			if t.Album == "" {
				t.Album = album.Title
			}
			if t.Artwork == "" {
				t.Artwork = album.Artwork
			}
			if t.AlbumID == "" {
				t.AlbumID = album.ID
			}
			tracks[i] = t
		}
		title := album.Title
		if album.Artist != "" {
			title = album.Artist + " - " + album.Title
		}
		return tracks, title, nil
	default:
		return nil, "", errors.Newf("unknown catalog source %d", v.source)
	}
}

func sortLibrary(tracks []track.Track) {
	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := tracks[i], tracks[j]
		if c := strings.Compare(strings.ToLower(a.Artist), strings.ToLower(b.Artist)); c != 0 {
			return c < 0
		}
		if c := strings.Compare(strings.ToLower(a.Album), strings.ToLower(b.Album)); c != 0 {
			return c < 0
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}

func (s *CatalogService) GetCachedTracks() []track.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTracks(s.tracks)
}

// Source returns the origin and display title of the current list.
func (s *CatalogService) Source() (Source, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.source, s.view.title
}

func (s *CatalogService) FindIndexByID(trackID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return track.IndexOf(s.tracks, trackID)
}

func (s *CatalogService) TrackCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// GetTrack returns a copy of the track at the given index, or nil when out of bounds.
func (s *CatalogService) GetTrack(index int) *track.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.tracks) {
		return nil
	}
	t := s.tracks[index]
	return &t
}

func (s *CatalogService) LoadImage(url string) (image.Image, error) {
	if s.imageCache != nil {
		if img := s.imageCache.GetImage(url); img != nil {
			log.Debug().Str("url", url).Msg("Artwork loaded from cache")
			return img, nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), imageLoadTimeout)
	defer cancel()

	resp, err := s.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch artwork")
	}
	if resp.IsError() {
		return nil, errors.Newf("artwork request returned status %d", resp.StatusCode())
	}

	img, _, err := image.Decode(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode artwork")
	}

	if s.imageCache != nil {
		if err := s.imageCache.SaveImage(url, img); err != nil {
			log.Debug().Err(err).Str("url", url).Msg("Failed to cache artwork")
		} else {
			log.Debug().Str("url", url).Msg("Artwork cached")
		}
	}

	return img, nil
}

func (s *CatalogService) StartPeriodicRefresh(interval time.Duration, callback func([]track.Track)) {
	s.StopPeriodicRefresh()

	if interval <= 0 {
		return
	}

	s.mu.Lock()
	s.onRefresh = callback
	s.stopRefresh = make(chan struct{})
	s.refreshTicker = time.NewTicker(interval)
	ticker := s.refreshTicker
	stopCh := s.stopRefresh
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				s.refreshInBackground()
			case <-stopCh:
				ticker.Stop()
				return
			}
		}
	}()

	log.Debug().Dur("interval", interval).Msg("Started periodic catalog refresh")
}

func (s *CatalogService) StopPeriodicRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopRefresh != nil {
		close(s.stopRefresh)
		s.stopRefresh = nil
		log.Debug().Msg("Stopped periodic catalog refresh")
	}
}

// refreshInBackground refetches the current view. A view switched during the
// fetch wins over the refreshed data.
func (s *CatalogService) refreshInBackground() {
	s.mu.RLock()
	v := s.view
	s.mu.RUnlock()

	if v.source == SourceNone {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), catalogTimeout)
	defer cancel()

	tracks, title, err := s.fetch(ctx, v)
	if err != nil {
		log.Warn().Err(err).Msg("Background refresh failed, keeping cached data")
		return
	}

	s.mu.Lock()
	if s.view.source != v.source || s.view.arg != v.arg {
		s.mu.Unlock()
		return
	}
	s.tracks = tracks
	s.view.title = title
	callback := s.onRefresh
	s.mu.Unlock()

	if callback != nil {
		callback(copyTracks(tracks))
	}

	log.Debug().Int("count", len(tracks)).Str("source", v.source.String()).Msg("Catalog refreshed in background")
}

func copyTracks(tracks []track.Track) []track.Track {
	result := make([]track.Track, len(tracks))
	copy(result, tracks)
	return result
}
