package draft

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

// tinyPNG returns a small valid PNG, padded with trailing bytes so the raw
// size is approximately targetSize. DecodeConfig only reads the header, so
// the padding does not affect decodability checks.
func tinyPNG(t *testing.T, targetSize int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	data := buf.Bytes()
	if len(data) < targetSize {
		data = append(data, make([]byte, targetSize-len(data))...)
	}
	return data
}

func TestIngestAddsValidImage(t *testing.T) {
	var s State
	res := s.Ingest([]File{{Name: "shot.png", MimeType: "image/png", Data: tinyPNG(t, 0)}}, true)

	if len(res.Added) != 1 {
		t.Fatalf("expected 1 added, got %d", len(res.Added))
	}
	if len(s.Images) != 1 {
		t.Fatalf("expected 1 image in state, got %d", len(s.Images))
	}
	if s.Images[0].ID == "" {
		t.Error("attached image should have an ID")
	}
	if s.Images[0].MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", s.Images[0].MimeType)
	}
	if s.Images[0].Data == "" {
		t.Error("attached image should carry base64 data")
	}
	if len(res.Notices) != 0 {
		t.Errorf("expected no notices, got %v", res.Notices)
	}
}

func TestIngestMixedBatchSizeCap(t *testing.T) {
	// A 2 MB PNG and a 7 MB JPEG in one batch: the PNG attaches, the JPEG
	// produces exactly one size notice, and the batch keeps going.
	var s State
	files := []File{
		{Name: "small.png", MimeType: "image/png", Data: tinyPNG(t, 2*1024*1024)},
		{Name: "big.jpg", MimeType: "image/jpeg", Data: make([]byte, 7*1024*1024)},
	}
	res := s.Ingest(files, true)

	if len(res.Added) != 1 {
		t.Fatalf("expected 1 added, got %d", len(res.Added))
	}
	if res.Added[0].Name != "small.png" {
		t.Errorf("wrong file attached: %s", res.Added[0].Name)
	}
	if len(res.Notices) != 1 {
		t.Fatalf("expected 1 notice, got %d: %v", len(res.Notices), res.Notices)
	}
	if !strings.Contains(res.Notices[0].Text, "big.jpg") {
		t.Errorf("notice should name the oversized file: %q", res.Notices[0].Text)
	}
	if len(res.PassThrough) != 0 {
		t.Errorf("image files must not fall through to text handling")
	}
}

func TestIngestCountCap(t *testing.T) {
	var s State
	var files []File
	for i := 0; i < MaxImages+2; i++ {
		files = append(files, File{Name: "f.png", MimeType: "image/png", Data: tinyPNG(t, 0)})
	}
	res := s.Ingest(files, true)

	if len(s.Images) != MaxImages {
		t.Fatalf("expected %d images, got %d", MaxImages, len(s.Images))
	}
	if len(res.Notices) != 2 {
		t.Errorf("expected 2 overflow notices, got %d", len(res.Notices))
	}
}

func TestIngestCountCheckedBeforeSize(t *testing.T) {
	// An oversized file arriving at a full draft reports the count cap, not
	// its size: the count check runs first.
	var s State
	for i := 0; i < MaxImages; i++ {
		s.Images = append(s.Images, AttachedImage{ID: "x"})
	}
	res := s.Ingest([]File{
		{Name: "big.jpg", MimeType: "image/jpeg", Data: make([]byte, 7*1024*1024)},
	}, true)

	if len(res.Added) != 0 {
		t.Fatalf("expected nothing added, got %d", len(res.Added))
	}
	if len(res.Notices) != 1 {
		t.Fatalf("expected 1 notice, got %d: %v", len(res.Notices), res.Notices)
	}
	if !strings.Contains(res.Notices[0].Text, "At most") {
		t.Errorf("expected the count cap notice, got %q", res.Notices[0].Text)
	}
}

func TestIngestCountCapAcrossCalls(t *testing.T) {
	var s State
	one := []File{{Name: "f.png", MimeType: "image/png", Data: tinyPNG(t, 0)}}
	for i := 0; i < MaxImages; i++ {
		s.Ingest(one, true)
	}
	res := s.Ingest(one, true)
	if len(res.Added) != 0 {
		t.Error("cap should hold across separate ingest calls")
	}
	if len(s.Images) != MaxImages {
		t.Errorf("expected %d images, got %d", MaxImages, len(s.Images))
	}
}

func TestIngestUnsupportedSurface(t *testing.T) {
	// Agent without image support: nothing attaches, exactly one notice for
	// the whole batch, and image files do not fall back to text handling.
	var s State
	files := []File{
		{Name: "a.png", MimeType: "image/png", Data: tinyPNG(t, 0)},
		{Name: "b.png", MimeType: "image/png", Data: tinyPNG(t, 0)},
	}
	res := s.Ingest(files, false)

	if len(res.Added) != 0 || len(s.Images) != 0 {
		t.Fatal("no images should attach when the surface lacks image support")
	}
	if len(res.Notices) != 1 {
		t.Fatalf("expected exactly 1 notice, got %d", len(res.Notices))
	}
	if len(res.PassThrough) != 0 {
		t.Error("rejected images must not fall through to text handling")
	}
}

func TestIngestNonImagePassesThrough(t *testing.T) {
	var s State
	files := []File{
		{Name: "notes.txt", MimeType: "text/plain", Data: []byte("hello")},
	}
	res := s.Ingest(files, true)

	if len(res.PassThrough) != 1 {
		t.Fatalf("expected 1 pass-through file, got %d", len(res.PassThrough))
	}
	if len(res.Notices) != 0 {
		t.Errorf("non-image files should not produce notices, got %v", res.Notices)
	}
	if len(s.Images) != 0 {
		t.Error("non-image files must not attach")
	}
}

func TestIngestSniffsMissingMIME(t *testing.T) {
	var s State
	res := s.Ingest([]File{{Name: "pasted", Data: tinyPNG(t, 0)}}, true)
	if len(res.Added) != 1 {
		t.Fatalf("sniffed PNG should attach, got %d added", len(res.Added))
	}
	if res.Added[0].MimeType != "image/png" {
		t.Errorf("sniffed MimeType = %q", res.Added[0].MimeType)
	}
}

func TestIngestSkipsUndecodable(t *testing.T) {
	var s State
	files := []File{
		{Name: "broken.png", MimeType: "image/png", Data: []byte("not a png")},
		{Name: "good.png", MimeType: "image/png", Data: tinyPNG(t, 0)},
	}
	res := s.Ingest(files, true)

	if len(res.Added) != 1 {
		t.Fatalf("expected the good file to attach, got %d added", len(res.Added))
	}
	if res.Added[0].Name != "good.png" {
		t.Errorf("wrong file attached: %s", res.Added[0].Name)
	}
	if len(res.Notices) != 1 {
		t.Errorf("expected 1 notice for the broken file, got %d", len(res.Notices))
	}
}

func TestResetImagesKeepsText(t *testing.T) {
	s := State{Text: "draft in progress"}
	s.Ingest([]File{{Name: "f.png", MimeType: "image/png", Data: tinyPNG(t, 0)}}, true)

	s.ResetImages()

	if len(s.Images) != 0 {
		t.Error("ResetImages should drop all images")
	}
	if s.Text != "draft in progress" {
		t.Errorf("ResetImages must not touch text, got %q", s.Text)
	}
}

func TestCloneIsDeep(t *testing.T) {
	var s State
	s.Text = "original"
	s.Ingest([]File{{Name: "f.png", MimeType: "image/png", Data: tinyPNG(t, 0)}}, true)

	c := s.Clone()
	c.Text = "changed"
	c.Images[0].Name = "renamed"

	if s.Text != "original" {
		t.Error("clone text edit leaked into source")
	}
	if s.Images[0].Name != "f.png" {
		t.Error("clone image edit leaked into source")
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		imgs  int
		empty bool
	}{
		{"nothing", "", 0, true},
		{"whitespace only", "   \n\t", 0, true},
		{"text", "hi", 0, false},
		{"image only", "", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := State{Text: tt.text}
			for i := 0; i < tt.imgs; i++ {
				s.Images = append(s.Images, AttachedImage{ID: "x"})
			}
			if got := s.IsEmpty(); got != tt.empty {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.empty)
			}
		})
	}
}

func TestRemoveImage(t *testing.T) {
	var s State
	s.Ingest([]File{
		{Name: "a.png", MimeType: "image/png", Data: tinyPNG(t, 0)},
		{Name: "b.png", MimeType: "image/png", Data: tinyPNG(t, 0)},
	}, true)

	id := s.Images[0].ID
	if !s.RemoveImage(id) {
		t.Fatal("RemoveImage should find the image")
	}
	if len(s.Images) != 1 || s.Images[0].Name != "b.png" {
		t.Errorf("unexpected images after removal: %+v", s.Images)
	}
	if s.RemoveImage("missing") {
		t.Error("RemoveImage should return false for unknown ID")
	}
}

func TestStashConsumeOnce(t *testing.T) {
	st := NewStash()
	st.Save("view-1", "lost draft")

	text, ok := st.Take("view-1")
	if !ok || text != "lost draft" {
		t.Fatalf("Take = %q, %v", text, ok)
	}
	if _, ok := st.Take("view-1"); ok {
		t.Error("second Take should find nothing")
	}
}

func TestStashIgnoresEmptyText(t *testing.T) {
	st := NewStash()
	st.Save("view-1", "")
	if st.Peek("view-1") {
		t.Error("empty text must not be stashed")
	}
}

func TestStashDrop(t *testing.T) {
	st := NewStash()
	st.Save("view-1", "draft")
	st.Drop("view-1")
	if _, ok := st.Take("view-1"); ok {
		t.Error("dropped draft should be gone")
	}
}
