package downloader

import (
	"reflect"
	"testing"
)

func TestExtractImages_GalleryOrderAndDedupe(t *testing.T) {
	html := `
	<html>
		<body>
			<div class="lg-item"><img class="lg-object lg-image" src="/images/photo1.jpg"></div>
			<div class="lg-item"><img class="lg-object lg-image" src="https://cdn.example.com/photo2"></div>
			<div class="lg-item"><img class="lg-object lg-image" src="/images/photo1.jpg"></div>
			<div class="lg-item"><img class="lg-object lg-image" src="data:image/gif;base64,R0lGOD"></div>
			<img class="thumb" src="/images/thumb.jpg">
		</body>
	</html>
	`

	urls, err := ExtractImages(html, "https://example.com/lot/9", ".lg-object.lg-image")
	if err != nil {
		t.Fatalf("ExtractImages failed: %v", err)
	}

	want := []string{"https://example.com/images/photo1.jpg", "https://cdn.example.com/photo2"}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("ExtractImages() = %v, want %v", urls, want)
	}
}

func TestExtractImages_NoMatches(t *testing.T) {
	urls, err := ExtractImages("<html><body></body></html>", "https://example.com", ".lg-image")
	if err != nil {
		t.Fatalf("ExtractImages failed: %v", err)
	}
	if len(urls) != 0 {
		t.Errorf("expected no urls, got %v", urls)
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"a", "b", "a", "c", "b"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Dedupe() = %v", got)
	}
}
