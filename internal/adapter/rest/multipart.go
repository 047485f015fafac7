package rest

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
)

const (
	imagesField       = "images"
	deleteImagesField = "deleteImages"
	formMemory        = 8 << 20
	formOverhead      = 1 << 20
)

// parseListingForm reads a multipart or urlencoded body. Oversized bodies are cut off
// at maxFiles*maxFileBytes plus some room for the text fields.
func parseListingForm(w http.ResponseWriter, r *http.Request, maxFiles int, maxFileBytes int64) error {
	if maxFiles > 0 && maxFileBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*maxFileBytes+formOverhead)
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(formMemory); err != nil {
			return fmt.Errorf("malformed multipart body: %w", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("malformed form body: %w", err)
	}
	return nil
}

func listingInputFromForm(r *http.Request) domain.ListingInput {
	get := func(k string) string { return r.PostForm.Get(k) }
	return domain.ListingInput{
		Name:        get("name"),
		Price:       get("price"),
		Size:        get("size"),
		Occasion:    get("occasion"),
		Gender:      get("gender"),
		Shop:        get("shop"),
		Phone:       get("phone"),
		Address:     get("address"),
		Description: get("description"),
	}
}

// listingPatchFromForm marks a field as set only when the client sent it.
func listingPatchFromForm(r *http.Request) domain.ListingPatch {
	opt := func(k string) domain.Optional[string] {
		if vs, ok := r.PostForm[k]; ok && len(vs) > 0 {
			return domain.Some(vs[0])
		}
		return domain.Optional[string]{}
	}
	patch := domain.ListingPatch{
		Name:        opt("name"),
		Price:       opt("price"),
		Size:        opt("size"),
		Occasion:    opt("occasion"),
		Gender:      opt("gender"),
		Shop:        opt("shop"),
		Phone:       opt("phone"),
		Address:     opt("address"),
		Description: opt("description"),
	}
	for _, v := range r.PostForm[deleteImagesField] {
		if v = strings.TrimSpace(v); v != "" {
			patch.DeleteImages = append(patch.DeleteImages, v)
		}
	}
	return patch
}

// uploadsFromForm reads the "images" files. It stops early once a file is larger than
// maxFileBytes so that the use case can reject it without buffering everything.
func uploadsFromForm(r *http.Request, maxFileBytes int64) ([]domain.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[imagesField]
	uploads := make([]domain.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh, maxFileBytes)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, domain.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func readPart(fh *multipart.FileHeader, maxFileBytes int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if maxFileBytes > 0 {
		r = io.LimitReader(f, maxFileBytes+1)
	}
	return io.ReadAll(r)
}
