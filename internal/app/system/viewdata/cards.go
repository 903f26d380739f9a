package viewdata

import "github.com/dalemusser/fwsm/internal/domain/models"

// OrgCard is one organization tile in a listing.
type OrgCard struct {
	ID               int
	Name             string
	ShortDescription string
	SectorName       string
	SubsectorName    string
	FeaturedImage    string
}

// CardFromDirectory builds a card from a directory entry.
func CardFromDirectory(o models.OrganizationWithSector) OrgCard {
	sub := o.Attributes.Subsector
	return OrgCard{
		ID:               o.ID,
		Name:             o.Attributes.Name,
		ShortDescription: o.Attributes.ShortDescription,
		SectorName:       sub.Attributes.Sector.Attributes.Name,
		SubsectorName:    sub.Attributes.Name,
	}
}

// CardFromHighlighted builds a card from a highlighted organization.
func CardFromHighlighted(o models.HighlightedOrganization) OrgCard {
	sub := o.Attributes.Subsector
	c := OrgCard{
		ID:               o.ID,
		Name:             o.Attributes.Name,
		ShortDescription: o.Attributes.ShortDescription,
		SectorName:       sub.Attributes.Sector.Attributes.Name,
		SubsectorName:    sub.Attributes.Name,
	}
	if o.Attributes.FeaturedImage != nil {
		c.FeaturedImage = o.Attributes.FeaturedImage.SmallURL()
	}
	return c
}

// Cards maps a slice with fn.
func Cards[T any](in []T, fn func(T) OrgCard) []OrgCard {
	out := make([]OrgCard, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
