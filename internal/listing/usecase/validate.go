package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
)

func parsePrice(raw string) (int64, bool) {
	p, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || p < 0 {
		return 0, false
	}
	return p, true
}

type requiredField struct {
	name  string
	value string
	dst   *string
}

// newListingFromInput validates every create attribute and reports all bad fields at once.
func newListingFromInput(in domain.ListingInput, verr *domain.ValidationError) *domain.Listing {
	l := &domain.Listing{Description: strings.TrimSpace(in.Description)}
	fields := []requiredField{
		{"name", in.Name, &l.Name},
		{"size", in.Size, &l.Size},
		{"occasion", in.Occasion, &l.Occasion},
		{"gender", in.Gender, &l.Gender},
		{"shop", in.Shop, &l.Shop},
		{"phone", in.Phone, &l.Phone},
		{"address", in.Address, &l.Address},
	}
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if v == "" {
			verr.Add(f.name, "is required")
			continue
		}
		*f.dst = v
	}
	if strings.TrimSpace(in.Price) == "" {
		verr.Add("price", "is required")
	} else if p, ok := parsePrice(in.Price); ok {
		l.Price = p
	} else {
		verr.Add("price", "must be a non-negative integer")
	}
	return l
}

// applyPatch writes the provided fields onto l. Omitted fields are left alone.
func applyPatch(l *domain.Listing, patch domain.ListingPatch, verr *domain.ValidationError) {
	optional := []struct {
		name string
		opt  domain.Optional[string]
		dst  *string
	}{
		{"name", patch.Name, &l.Name},
		{"size", patch.Size, &l.Size},
		{"occasion", patch.Occasion, &l.Occasion},
		{"gender", patch.Gender, &l.Gender},
		{"shop", patch.Shop, &l.Shop},
		{"phone", patch.Phone, &l.Phone},
		{"address", patch.Address, &l.Address},
	}
	for _, f := range optional {
		if !f.opt.Set {
			continue
		}
		v := strings.TrimSpace(f.opt.Value)
		if v == "" {
			verr.Add(f.name, "must not be empty")
			continue
		}
		*f.dst = v
	}
	if patch.Description.Set {
		l.Description = strings.TrimSpace(patch.Description.Value)
	}
	if patch.Price.Set {
		if p, ok := parsePrice(patch.Price.Value); ok {
			l.Price = p
		} else {
			verr.Add("price", "must be a non-negative integer")
		}
	}
}

func validateUploads(uploads []domain.Upload, maxFiles int, maxBytes int64, verr *domain.ValidationError) {
	if maxFiles > 0 && len(uploads) > maxFiles {
		verr.Add("images", fmt.Sprintf("at most %d files per request", maxFiles))
		return
	}
	for i, u := range uploads {
		switch {
		case len(u.Data) == 0:
			verr.Add("images", fmt.Sprintf("file %d (%s) is empty", i+1, u.Filename))
			return
		case maxBytes > 0 && int64(len(u.Data)) > maxBytes:
			verr.Add("images", fmt.Sprintf("file %d (%s) exceeds %d bytes", i+1, u.Filename, maxBytes))
			return
		}
	}
}
