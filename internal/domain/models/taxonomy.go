// internal/domain/models/taxonomy.go
package models

import "github.com/dalemusser/fwsm/internal/domain/decode"

// Sector is the top level of the fixed two-level taxonomy.
type Sector struct {
	ID         int
	Attributes SectorAttributes
}

type SectorAttributes struct {
	Name        string
	Description *string
}

// Subsector always belongs to exactly one Sector.
type Subsector struct {
	ID         int
	Attributes SubsectorAttributes
}

type SubsectorAttributes struct {
	Name        string
	Description *string
	Sector      Sector
}

// DecodeSector validates a sector entry.
var DecodeSector = decode.Object(func(o *decode.Obj) Sector {
	return Sector{
		ID: decode.Field(o, "id", decode.Positive()),
		Attributes: decode.Field(o, "attributes", decode.Object(func(a *decode.Obj) SectorAttributes {
			return SectorAttributes{
				Name:        decode.Field(a, "name", decode.String()),
				Description: decode.Field(a, "description", decode.Optional(decode.String())),
			}
		})),
	}
})

// DecodeSubsector validates a subsector with its populated sector relation.
var DecodeSubsector = decode.Object(func(o *decode.Obj) Subsector {
	return Subsector{
		ID: decode.Field(o, "id", decode.Positive()),
		Attributes: decode.Field(o, "attributes", decode.Object(func(a *decode.Obj) SubsectorAttributes {
			return SubsectorAttributes{
				Name:        decode.Field(a, "name", decode.String()),
				Description: decode.Field(a, "description", decode.Optional(decode.String())),
				Sector:      decode.Field(a, "sector", decode.Relation(DecodeSector)),
			}
		})),
	}
})
