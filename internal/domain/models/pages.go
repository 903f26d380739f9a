// internal/domain/models/pages.go
package models

import "github.com/dalemusser/fwsm/internal/domain/decode"

// SectionHeader heads a block of page content.
type SectionHeader struct {
	ID          int
	Heading     string
	Subtitle    *string
	Description *string
}

// Step is one entry of the "how it works" highlight on the home page.
type Step struct {
	ID         int
	StepNumber int
	Heading    string
	Content    *string
}

// SectorCard introduces one sector on the home and themes pages.
type SectorCard struct {
	ID      int
	Title   string
	Content string
	Sector  Sector
}

type FunctionalityHighlight struct {
	Header SectionHeader
	Steps  []Step
}

type SectorOverview struct {
	Header SectionHeader
	Cards  []SectorCard
}

// HomePageContent is the CMS document behind "/".
type HomePageContent struct {
	ID         int
	Attributes HomePageAttributes
}

type HomePageAttributes struct {
	Title                  string
	Lead                   string
	FunctionalityHighlight FunctionalityHighlight
	SectorOverview         SectorOverview
}

// AboutPageContent is the CMS document behind "/about".
type AboutPageContent struct {
	ID         int
	Attributes AboutPageAttributes
}

type AboutPageAttributes struct {
	Title        string
	Introduction string
	Content      string
}

// ThemesPageContent is the CMS document behind "/themes".
type ThemesPageContent struct {
	ID         int
	Attributes ThemesPageAttributes
}

type ThemesPageAttributes struct {
	Title          string
	Introduction   string
	Content        string
	SectorOverview SectorOverview
}

var decodeSectionHeader = decode.Object(func(o *decode.Obj) SectionHeader {
	return SectionHeader{
		ID:          decode.Field(o, "id", decode.Int()),
		Heading:     decode.Field(o, "heading", decode.String()),
		Subtitle:    decode.Field(o, "subtitle", decode.Nullable(decode.String())),
		Description: decode.Field(o, "description", decode.Nullable(decode.String())),
	}
})

var decodeStep = decode.Object(func(o *decode.Obj) Step {
	return Step{
		ID:         decode.Field(o, "id", decode.Int()),
		StepNumber: decode.Field(o, "stepNumber", decode.Int()),
		Heading:    decode.Field(o, "heading", decode.String()),
		Content:    decode.Field(o, "content", decode.Nullable(decode.String())),
	}
})

var decodeSectorCard = decode.Object(func(o *decode.Obj) SectorCard {
	return SectorCard{
		ID:      decode.Field(o, "id", decode.Int()),
		Title:   decode.Field(o, "title", decode.String()),
		Content: decode.Field(o, "content", decode.String()),
		Sector:  decode.Field(o, "sector", decode.Relation(DecodeSector)),
	}
})

var decodeSectorOverview = decode.Object(func(o *decode.Obj) SectorOverview {
	return SectorOverview{
		Header: decode.Field(o, "header", decodeSectionHeader),
		Cards:  decode.Field(o, "cards", decode.Array(decodeSectorCard)),
	}
})

// DecodeHomePageContent validates the home page document.
var DecodeHomePageContent = decode.Object(func(o *decode.Obj) HomePageContent {
	return HomePageContent{
		ID: decode.Field(o, "id", decode.Int()),
		Attributes: decode.Field(o, "attributes", decode.Object(func(a *decode.Obj) HomePageAttributes {
			return HomePageAttributes{
				Title: decode.Field(a, "title", decode.String()),
				Lead:  decode.Field(a, "lead", decode.String()),
				FunctionalityHighlight: decode.Field(a, "functionalityHighlight", decode.Object(func(f *decode.Obj) FunctionalityHighlight {
					return FunctionalityHighlight{
						Header: decode.Field(f, "header", decodeSectionHeader),
						Steps:  decode.Field(f, "steps", decode.Array(decodeStep)),
					}
				})),
				SectorOverview: decode.Field(a, "sectorOverview", decodeSectorOverview),
			}
		})),
	}
})

// DecodeAboutPageContent validates the about page document.
var DecodeAboutPageContent = decode.Object(func(o *decode.Obj) AboutPageContent {
	return AboutPageContent{
		ID: decode.Field(o, "id", decode.Int()),
		Attributes: decode.Field(o, "attributes", decode.Object(func(a *decode.Obj) AboutPageAttributes {
			return AboutPageAttributes{
				Title:        decode.Field(a, "title", decode.String()),
				Introduction: decode.Field(a, "introduction", decode.String()),
				Content:      decode.Field(a, "content", decode.String()),
			}
		})),
	}
})

// DecodeThemesPageContent validates the themes page document.
var DecodeThemesPageContent = decode.Object(func(o *decode.Obj) ThemesPageContent {
	return ThemesPageContent{
		ID: decode.Field(o, "id", decode.Int()),
		Attributes: decode.Field(o, "attributes", decode.Object(func(a *decode.Obj) ThemesPageAttributes {
			return ThemesPageAttributes{
				Title:          decode.Field(a, "title", decode.String()),
				Introduction:   decode.Field(a, "introduction", decode.String()),
				Content:        decode.Field(a, "content", decode.String()),
				SectorOverview: decode.Field(a, "sectorOverview", decodeSectorOverview),
			}
		})),
	}
})
