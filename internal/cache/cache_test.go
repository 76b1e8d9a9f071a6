package cache

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 200, A: 255})
		}
	}
	return img
}

func TestHashURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"simple URL", "http://example.com/cover.png"},
		{"URL with query params", "http://example.com/cover.png?size=large"},
		{"empty string", ""},
		{"https URL", "https://cdn.tunequeue.app/artwork/alb-1.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := hashURL(tt.url)

			if len(result) != 40 {
				t.Errorf("hashURL(%q) length = %d, want 40", tt.url, len(result))
			}

			for _, c := range result {
				if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
					t.Errorf("hashURL(%q) contains non-hex character: %c", tt.url, c)
				}
			}
		})
	}
}

func TestHashURLUniqueness(t *testing.T) {
	if hashURL("http://example.com/a.png") == hashURL("http://example.com/b.png") {
		t.Error("Different URLs produced same hash")
	}
	if hashURL("http://example.com/a.png") != hashURL("http://example.com/a.png") {
		t.Error("hashURL is not consistent")
	}
}

func TestSaveAndGetImage(t *testing.T) {
	c := New(t.TempDir(), time.Hour)
	url := "https://cdn.example.com/art/1.png"

	if img := c.GetImage(url); img != nil {
		t.Fatal("GetImage should return nil before saving")
	}

	if err := c.SaveImage(url, testImage()); err != nil {
		t.Fatalf("SaveImage error: %v", err)
	}

	img := c.GetImage(url)
	if img == nil {
		t.Fatal("GetImage returned nil after saving")
	}

	if img.Bounds() != testImage().Bounds() {
		t.Errorf("Bounds = %v, want %v", img.Bounds(), testImage().Bounds())
	}

	r, g, b, _ := img.At(2, 3).RGBA()
	wr, wg, wb, _ := testImage().At(2, 3).RGBA()
	if r != wr || g != wg || b != wb {
		t.Error("cached pixel differs from original")
	}

	leftovers, _ := filepath.Glob(filepath.Join(c.artworkDir(), ".artwork-*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestGetImageExpired(t *testing.T) {
	c := New(t.TempDir(), time.Hour)
	url := "https://cdn.example.com/art/old.png"

	if err := c.SaveImage(url, testImage()); err != nil {
		t.Fatalf("SaveImage error: %v", err)
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if img := c.GetImage(url); img != nil {
		t.Error("GetImage should return nil for expired artwork")
	}

	if _, err := os.Stat(c.pathFor(url)); !os.IsNotExist(err) {
		t.Error("expired artwork should be removed")
	}
}

func TestGetImageCorrupted(t *testing.T) {
	c := New(t.TempDir(), time.Hour)
	url := "https://cdn.example.com/art/broken.png"

	if err := os.MkdirAll(c.artworkDir(), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(c.pathFor(url), []byte("not a png"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if img := c.GetImage(url); img != nil {
		t.Error("GetImage should return nil for corrupted files")
	}
}

func TestCleanExpired(t *testing.T) {
	c := New(t.TempDir(), time.Hour)

	if err := c.CleanExpired(); err != nil {
		t.Fatalf("CleanExpired on missing dir error: %v", err)
	}

	fresh := "https://cdn.example.com/fresh.png"
	stale := "https://cdn.example.com/stale.png"
	for _, url := range []string{fresh, stale} {
		if err := c.SaveImage(url, testImage()); err != nil {
			t.Fatalf("SaveImage error: %v", err)
		}
	}

	old := time.Now().Add(-3 * time.Hour)
	if err := os.Chtimes(c.pathFor(stale), old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if err := c.CleanExpired(); err != nil {
		t.Fatalf("CleanExpired error: %v", err)
	}

	if _, err := os.Stat(c.pathFor(stale)); !os.IsNotExist(err) {
		t.Error("stale artwork should be removed")
	}
	if _, err := os.Stat(c.pathFor(fresh)); err != nil {
		t.Errorf("fresh artwork should remain: %v", err)
	}
}

func TestGetCacheDir(t *testing.T) {
	dir, err := GetCacheDir()
	if err != nil {
		t.Skipf("no user cache dir: %v", err)
	}

	if filepath.Base(dir) != "tunequeue" {
		t.Errorf("GetCacheDir() = %q, want .../tunequeue", dir)
	}
}
