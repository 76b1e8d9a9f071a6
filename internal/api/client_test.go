package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/glebovdev/tunequeue/internal/playback"
	"github.com/glebovdev/tunequeue/internal/track"
)

func setupTestServer(handler http.HandlerFunc) (*httptest.Server, *Client) {
	server := httptest.NewServer(handler)
	client := NewClient(Options{
		BaseURL:  server.URL,
		Token:    "secret-token",
		DeviceID: "device-123",
	})
	return server, client
}

func writeSongs(w http.ResponseWriter, songs []track.Track) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(songsResponse{Songs: songs})
}

func TestGetSongs(t *testing.T) {
	expected := []track.Track{
		{ID: "1", Title: "Song 1", Artist: "Artist 1", AudioURL: "https://cdn.example.com/1.mp3", Duration: 200},
		{ID: "2", Title: "Song 2", Artist: "Artist 2"},
	}

	server, client := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/songs" {
			t.Errorf("Expected path /songs, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret-token" {
			t.Errorf("Authorization = %q, want bearer token", auth)
		}
		if id := r.Header.Get(deviceHeader); id != "device-123" {
			t.Errorf("%s = %q, want device-123", deviceHeader, id)
		}
		writeSongs(w, expected)
	})
	defer server.Close()

	songs, err := client.GetSongs(context.Background())
	if err != nil {
		t.Fatalf("GetSongs() error = %v", err)
	}

	if len(songs) != len(expected) {
		t.Fatalf("GetSongs() returned %d songs, want %d", len(songs), len(expected))
	}

	for i, s := range songs {
		if s != expected[i] {
			t.Errorf("songs[%d] = %+v, want %+v", i, s, expected[i])
		}
	}

	if songs[1].IsPlayable() {
		t.Error("song without audioUrl should not be playable")
	}
}

func TestGetSongsEmptyResponse(t *testing.T) {
	server, client := setupTestServer(func(w http.ResponseWriter, _ *http.Request) {
		writeSongs(w, []track.Track{})
	})
	defer server.Close()

	songs, err := client.GetSongs(context.Background())
	if err != nil {
		t.Fatalf("GetSongs() error = %v", err)
	}

	if len(songs) != 0 {
		t.Errorf("GetSongs() returned %d songs, want 0", len(songs))
	}
}

func TestGetSongsInvalidJSON(t *testing.T) {
	server, client := setupTestServer(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("not valid json"))
	})
	defer server.Close()

	if _, err := client.GetSongs(context.Background()); err == nil {
		t.Error("GetSongs() should return error for invalid JSON")
	}
}

func TestSearchSongs(t *testing.T) {
	server, client := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/songs/search" {
			t.Errorf("Expected path /songs/search, got %s", r.URL.Path)
		}
		if q := r.URL.Query().Get("q"); q != "blue monday" {
			t.Errorf("q = %q, want %q", q, "blue monday")
		}
		writeSongs(w, []track.Track{{ID: "7", Title: "Blue Monday"}})
	})
	defer server.Close()

	songs, err := client.SearchSongs(context.Background(), "blue monday")
	if err != nil {
		t.Fatalf("SearchSongs() error = %v", err)
	}

	if len(songs) != 1 || songs[0].ID != "7" {
		t.Errorf("SearchSongs() = %+v", songs)
	}
}

func TestGetLikedSongs(t *testing.T) {
	server, client := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me/liked" {
			t.Errorf("Expected path /users/me/liked, got %s", r.URL.Path)
		}
		writeSongs(w, []track.Track{{ID: "9"}, {ID: "10"}})
	})
	defer server.Close()

	songs, err := client.GetLikedSongs(context.Background())
	if err != nil {
		t.Fatalf("GetLikedSongs() error = %v", err)
	}

	if got := track.IDs(songs); len(got) != 2 || got[0] != "9" || got[1] != "10" {
		t.Errorf("GetLikedSongs() ids = %v", got)
	}
}

func TestGetAlbum(t *testing.T) {
	expected := Album{
		ID:     "alb-1",
		Title:  "Power, Corruption & Lies",
		Artist: "New Order",
		Songs:  []track.Track{{ID: "1", Title: "Age of Consent"}},
	}

	server, client := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/albums/alb-1" {
			t.Errorf("Expected path /albums/alb-1, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(expected)
	})
	defer server.Close()

	album, err := client.GetAlbum(context.Background(), "alb-1")
	if err != nil {
		t.Fatalf("GetAlbum() error = %v", err)
	}

	if album.Title != expected.Title || album.Artist != expected.Artist {
		t.Errorf("GetAlbum() = %+v, want %+v", album, expected)
	}
	if len(album.Songs) != 1 || album.Songs[0].Title != "Age of Consent" {
		t.Errorf("GetAlbum().Songs = %+v", album.Songs)
	}
}

func TestUpdateSettings(t *testing.T) {
	var received playback.Settings

	server, client := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("Method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/users/me/settings" {
			t.Errorf("Expected path /users/me/settings, got %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("invalid body %q: %v", body, err)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	defer server.Close()

	want := playback.Settings{Shuffle: true, Loop: false, Volume: 65, Muted: true}
	if err := client.UpdateSettings(context.Background(), want); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}

	if received != want {
		t.Errorf("server received %+v, want %+v", received, want)
	}
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		unauthorized bool
	}{
		{"unauthorized", http.StatusUnauthorized, true},
		{"not found", http.StatusNotFound, false},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, client := setupTestServer(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})
			defer server.Close()

			_, err := client.GetSongs(context.Background())
			if err == nil {
				t.Fatal("GetSongs() should fail")
			}

			if got := errors.Is(err, ErrUnauthorized); got != tt.unauthorized {
				t.Errorf("errors.Is(err, ErrUnauthorized) = %v, want %v", got, tt.unauthorized)
			}

			if !tt.unauthorized {
				var statusErr *StatusError
				if !errors.As(err, &statusErr) || statusErr.StatusCode != tt.status {
					t.Errorf("error = %v, want StatusError %d", err, tt.status)
				}
			}
		})
	}
}

func TestCancelledContext(t *testing.T) {
	server, client := setupTestServer(func(w http.ResponseWriter, _ *http.Request) {
		writeSongs(w, nil)
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.GetSongs(ctx); err == nil {
		t.Error("GetSongs() should fail with a cancelled context")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Options{})

	if client == nil || client.client == nil {
		t.Fatal("NewClient() returned an unusable client")
	}

	if client.client.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", client.client.BaseURL, DefaultBaseURL)
	}

	if client.client.Header.Get(deviceHeader) != "" {
		t.Error("device header should not be set without a device id")
	}
}
