// internal/domain/models/organization.go
package models

import (
	"time"

	"github.com/dalemusser/fwsm/internal/domain/decode"
)

// Organization is a directory listing. The backend owns it; the portal holds
// short-lived copies only.
type Organization struct {
	ID         int
	Attributes OrganizationAttributes
}

// OrganizationAttributes are the fields every organization shape shares.
type OrganizationAttributes struct {
	Name             string
	ShortDescription string
	Description      *string
}

// OrganizationWithSector is a directory entry with its classification.
type OrganizationWithSector struct {
	ID         int
	Attributes OrganizationWithSectorAttributes
}

type OrganizationWithSectorAttributes struct {
	OrganizationAttributes
	Subsector Subsector
}

// HighlightedOrganization is shown on the home and themes pages.
type HighlightedOrganization struct {
	ID         int
	Attributes HighlightedOrganizationAttributes
}

type HighlightedOrganizationAttributes struct {
	OrganizationAttributes
	Subsector     Subsector
	FeaturedImage *Image
}

// OrganizationProfile is the full public profile.
type OrganizationProfile struct {
	ID         int
	Attributes OrganizationProfileAttributes
}

type OrganizationProfileAttributes struct {
	OrganizationAttributes
	Address   Address
	Email     string
	Website   *string
	Logo      *Image
	Images    []Image
	Subsector Subsector
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Address is the organization's postal address.
type Address struct {
	Address  string
	Postcode string
	City     string
	Province *string
	Country  string
}

// OrganizationInput is what the registration and settings forms send. Nil
// fields are left untouched by an update.
type OrganizationInput struct {
	Name             *string       `json:"name,omitempty"`
	ShortDescription *string       `json:"shortDescription,omitempty"`
	Description      *string       `json:"description,omitempty"`
	Email            *string       `json:"email,omitempty"`
	Website          *string       `json:"website,omitempty"`
	Address          *AddressInput `json:"address,omitempty"`
	Subsector        *int          `json:"subsector,omitempty"`
	Logo             *int          `json:"logo,omitempty"`
	Images           *[]int        `json:"images,omitempty"`
}

type AddressInput struct {
	Address  string `json:"address"`
	Postcode string `json:"postcode"`
	City     string `json:"city"`
	Province string `json:"province,omitempty"`
	Country  string `json:"country"`
}

// SectorID is the sector of the organization's subsector.
func (o OrganizationWithSector) SectorID() int {
	return o.Attributes.Subsector.Attributes.Sector.ID
}

// ImageIDs lists the ids of the gallery images in order.
func (p OrganizationProfile) ImageIDs() []int {
	ids := make([]int, 0, len(p.Attributes.Images))
	for _, img := range p.Attributes.Images {
		ids = append(ids, img.ID)
	}
	return ids
}

/*─────────────────────────────────────────────────────────────────────────────*
| Decoders                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func decodeOrgAttrs(o *decode.Obj) OrganizationAttributes {
	return OrganizationAttributes{
		Name:             decode.Field(o, "name", decode.String()),
		ShortDescription: decode.Field(o, "shortDescription", decode.String()),
		Description:      decode.Field(o, "description", decode.Optional(decode.String())),
	}
}

// DecodeOrganization validates the bare organization shape.
var DecodeOrganization = decode.Object(func(o *decode.Obj) Organization {
	return Organization{
		ID: decode.Field(o, "id", decode.Positive()),
		Attributes: decode.Field(o, "attributes", decode.Object(func(a *decode.Obj) OrganizationAttributes {
			return decodeOrgAttrs(a)
		})),
	}
})

// DecodeOrganizationWithSector validates a directory entry.
var DecodeOrganizationWithSector = decode.Object(func(o *decode.Obj) OrganizationWithSector {
	return OrganizationWithSector{
		ID: decode.Field(o, "id", decode.Positive()),
		Attributes: decode.Field(o, "attributes", decode.Object(func(a *decode.Obj) OrganizationWithSectorAttributes {
			return OrganizationWithSectorAttributes{
				OrganizationAttributes: decodeOrgAttrs(a),
				Subsector:              decode.Field(a, "subsector", decode.Relation(DecodeSubsector)),
			}
		})),
	}
})

// DecodeHighlightedOrganization validates a highlighted entry.
var DecodeHighlightedOrganization = decode.Object(func(o *decode.Obj) HighlightedOrganization {
	return HighlightedOrganization{
		ID: decode.Field(o, "id", decode.Positive()),
		Attributes: decode.Field(o, "attributes", decode.Object(func(a *decode.Obj) HighlightedOrganizationAttributes {
			return HighlightedOrganizationAttributes{
				OrganizationAttributes: decodeOrgAttrs(a),
				Subsector:              decode.Field(a, "subsector", decode.Relation(DecodeSubsector)),
				FeaturedImage:          decode.Field(a, "featuredImage", decode.Relation(decode.Nullable(DecodeImage))),
			}
		})),
	}
})

var decodeAddress = decode.Object(func(o *decode.Obj) Address {
	return Address{
		Address:  decode.Field(o, "address", decode.String()),
		Postcode: decode.Field(o, "postcode", decode.String()),
		City:     decode.Field(o, "city", decode.String()),
		Province: decode.Field(o, "province", decode.Optional(decode.String())),
		Country:  decode.Field(o, "country", decode.String()),
	}
})

// DecodeOrganizationProfile validates the full profile.
var DecodeOrganizationProfile = decode.Object(func(o *decode.Obj) OrganizationProfile {
	return OrganizationProfile{
		ID: decode.Field(o, "id", decode.Positive()),
		Attributes: decode.Field(o, "attributes", decode.Object(func(a *decode.Obj) OrganizationProfileAttributes {
			images := decode.Field(a, "images", decode.Relation(decode.Nullable(decode.Array(DecodeImage))))
			attrs := OrganizationProfileAttributes{
				OrganizationAttributes: decodeOrgAttrs(a),
				Address:                decode.Field(a, "address", decodeAddress),
				Email:                  decode.Field(a, "email", decode.Email()),
				Website:                decode.Field(a, "website", decode.Optional(decode.String())),
				Logo:                   decode.Field(a, "logo", decode.Relation(decode.Nullable(DecodeImage))),
				Subsector:              decode.Field(a, "subsector", decode.Relation(DecodeSubsector)),
				CreatedAt:              decode.Field(a, "createdAt", decode.Time()),
				UpdatedAt:              decode.Field(a, "updatedAt", decode.Time()),
			}
			if images != nil {
				attrs.Images = *images
			}
			return attrs
		})),
	}
})
