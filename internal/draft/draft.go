// Package draft holds the per-view input state: the text being composed and
// the images attached to it. One view owns a State at a time; broadcast hands
// out deep copies, never shared references.
package draft

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"net/http"
	"strings"

	// Registered so image.DecodeConfig recognizes the whitelisted formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/google/uuid"

	"github.com/jshelley/sidechat/internal/logger"
)

// MaxImages is the most images one message can carry.
const MaxImages = 10

// MaxImageBytes is the per-file size limit, measured on the raw bytes
// before base64 encoding.
const MaxImageBytes = 5 * 1024 * 1024

// allowedMIME is the image whitelist. Files outside it are not treated as
// images at all; they fall back to whatever handles plain pastes.
var allowedMIME = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// AttachedImage is an image staged for the next message.
type AttachedImage struct {
	ID       string
	Name     string
	Data     string // base64-encoded file contents
	MimeType string
	Size     int64 // raw byte size before encoding
}

// State is the input state of one view.
type State struct {
	Text   string
	Images []AttachedImage
}

// Clone returns a deep copy. Used by broadcast so that editing the copy
// never mutates the source view's draft.
func (s State) Clone() State {
	out := State{Text: s.Text}
	if len(s.Images) > 0 {
		out.Images = make([]AttachedImage, len(s.Images))
		copy(out.Images, s.Images)
	}
	return out
}

// IsEmpty reports whether there is nothing to send: no non-whitespace text
// and no images.
func (s State) IsEmpty() bool {
	return strings.TrimSpace(s.Text) == "" && len(s.Images) == 0
}

// Clear empties both text and images.
func (s *State) Clear() {
	s.Text = ""
	s.Images = nil
}

// ResetImages drops the attached images and keeps the text. Called when the
// active agent changes, since the new agent may not accept what was staged.
func (s *State) ResetImages() {
	s.Images = nil
}

// RemoveImage removes the image with the given ID. Returns true if found.
func (s *State) RemoveImage(id string) bool {
	for i, img := range s.Images {
		if img.ID == id {
			s.Images = append(s.Images[:i], s.Images[i+1:]...)
			return true
		}
	}
	return false
}

// File is one candidate for ingestion: a pasted or dropped file.
type File struct {
	Name     string
	MimeType string // sniffed from the data when empty
	Data     []byte
}

// Notice is user-facing feedback from an ingestion attempt. Ingestion
// failures are notices, never errors: the draft stays intact either way.
type Notice struct {
	Text    string
	Warning bool // false means informational
}

// IngestResult reports what one Ingest call did.
type IngestResult struct {
	Added   []AttachedImage
	Notices []Notice
	// PassThrough lists files that are not images at all. The caller should
	// hand them to its default paste handling.
	PassThrough []File
}

// Ingest evaluates a batch of candidate files in order against the current
// draft and appends the ones that pass. Evaluation order per file:
// whitelist, surface image support, running count, per-file size. A file
// that fails any check produces a notice and is dropped; later files are
// still considered, so the count cap fills up with whatever fits.
//
// When supportsImages is false every whitelisted file in the batch is
// rejected with a single notice, and none fall through to text handling.
func (s *State) Ingest(files []File, supportsImages bool) IngestResult {
	var res IngestResult
	log := logger.ComponentLogger("Draft")

	rejectedUnsupported := false
	count := len(s.Images)

	for _, f := range files {
		mime := f.MimeType
		if mime == "" {
			mime = sniffMIME(f.Data)
		}

		if !allowedMIME[mime] {
			// Not an image. Leave it to default handling.
			res.PassThrough = append(res.PassThrough, f)
			continue
		}

		if !supportsImages {
			// The whole batch of images is rejected with one notice, and
			// the files do not fall back to text handling.
			rejectedUnsupported = true
			continue
		}

		if count >= MaxImages {
			res.Notices = append(res.Notices, Notice{
				Text:    fmt.Sprintf("At most %d images per message", MaxImages),
				Warning: true,
			})
			continue
		}

		if int64(len(f.Data)) > MaxImageBytes {
			res.Notices = append(res.Notices, Notice{
				Text:    fmt.Sprintf("%s is too large (%.1f MB, limit %d MB)", displayName(f), float64(len(f.Data))/(1024*1024), MaxImageBytes/(1024*1024)),
				Warning: true,
			})
			continue
		}

		if _, _, err := image.DecodeConfig(bytes.NewReader(f.Data)); err != nil {
			log.Debug("skipping undecodable image", "name", f.Name, "error", err)
			res.Notices = append(res.Notices, Notice{
				Text:    fmt.Sprintf("Could not read %s", displayName(f)),
				Warning: true,
			})
			continue
		}

		img := AttachedImage{
			ID:       uuid.New().String(),
			Name:     f.Name,
			Data:     base64.StdEncoding.EncodeToString(f.Data),
			MimeType: mime,
			Size:     int64(len(f.Data)),
		}
		s.Images = append(s.Images, img)
		res.Added = append(res.Added, img)
		count++
	}

	if rejectedUnsupported {
		res.Notices = append(res.Notices, Notice{
			Text:    "This agent does not accept images",
			Warning: true,
		})
	}

	if len(res.Added) > 0 {
		log.Debug("ingested images", "added", len(res.Added), "total", count)
	}
	return res
}

func sniffMIME(data []byte) string {
	mime := http.DetectContentType(data)
	// DetectContentType appends parameters for some types ("text/plain;
	// charset=utf-8"); the whitelist compares bare types.
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(mime)
}

func displayName(f File) string {
	if f.Name != "" {
		return f.Name
	}
	return "image"
}
