package client

import (
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
)

// validate is shared by all form types. Struct-level rules cover the
// cross-field constraints tags cannot express.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(listingDraftRules, ListingDraft{})
	v.RegisterStructValidation(listingPatchRules, ListingPatch{})
	return v
}

// ImageFile is one image to upload with a listing, in display order.
type ImageFile struct {
	Filename string
	Content  io.Reader
}

// ListingDraft is the client-side form for creating a listing. It must
// pass Validate before any request is sent; validation failures block
// submission entirely.
type ListingDraft struct {
	Title       string   `validate:"required,max=255"`
	Description string   `validate:"required"`
	Price       float64  `validate:"required,gt=0"`
	Condition   string   `validate:"required,oneof=new like_new good fair"`
	Location    string   `validate:"omitempty,max=255"`
	MinPrice    *float64 `validate:"omitempty,gt=0"`
	SellerNotes string   `validate:"omitempty"`
	Images      []ImageFile
}

// ListingPatch is the partial-update form; every field is optional and
// only set fields are sent.
type ListingPatch struct {
	Title       *string  `validate:"omitempty,min=1,max=255"`
	Description *string  `validate:"omitempty,min=1"`
	Price       *float64 `validate:"omitempty,gt=0"`
	Condition   *string  `validate:"omitempty,oneof=new like_new good fair"`
	Location    *string  `validate:"omitempty,max=255"`
	MinPrice    *float64 `validate:"omitempty,gt=0"`
	SellerNotes *string  `validate:"omitempty"`
	Images      []ImageFile
}

// TrackingForm carries a tracking number for a payment_held transaction.
type TrackingForm struct {
	TrackingNumber string `validate:"required,min=4,max=255"`
}

// min_price is a negotiation floor; it can never sit above the asking
// price.
func listingDraftRules(sl validator.StructLevel) {
	draft := sl.Current().Interface().(ListingDraft)
	if draft.MinPrice != nil && *draft.MinPrice > draft.Price {
		sl.ReportError(draft.MinPrice, "MinPrice", "min_price", "ltefield", "Price")
	}
}

func listingPatchRules(sl validator.StructLevel) {
	patch := sl.Current().Interface().(ListingPatch)
	if patch.MinPrice != nil && patch.Price != nil && *patch.MinPrice > *patch.Price {
		sl.ReportError(patch.MinPrice, "MinPrice", "min_price", "ltefield", "Price")
	}
}

// Validate checks the draft locally. A non-nil error means the form
// never reaches the network.
func (d ListingDraft) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid listing: %w", err)
	}
	return nil
}

// Validate checks the patch locally.
func (p ListingPatch) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid listing update: %w", err)
	}
	return nil
}

// Validate checks the tracking form locally.
func (f TrackingForm) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid tracking number: %w", err)
	}
	return nil
}
