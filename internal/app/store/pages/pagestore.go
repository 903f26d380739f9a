// internal/app/store/pages/pagestore.go
package pagestore

import (
	"context"

	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/domain/models"
)

// Store reads the CMS single types behind the static pages.
type Store struct {
	c *apiclient.Client
}

func New(c *apiclient.Client) *Store {
	return &Store{c: c}
}

// Home returns the home page content.
func (s *Store) Home(ctx context.Context) (models.HomePageContent, error) {
	res, err := apiclient.Do(ctx, s.c, apiclient.Request{
		Path: "/home",
		Query: apiclient.Query{Populate: apiclient.Populate{Nested: []apiclient.Nested{
			{Field: "functionalityHighlight", All: true},
			{Field: "sectorOverview", Paths: []string{"header", "cards", "cards.sector"}},
		}}},
	}, models.DecodeSingle(models.DecodeHomePageContent))
	if err != nil {
		return models.HomePageContent{}, err
	}
	return res.Data, nil
}

// About returns the about page content.
func (s *Store) About(ctx context.Context) (models.AboutPageContent, error) {
	res, err := apiclient.Do(ctx, s.c, apiclient.Request{Path: "/about"},
		models.DecodeSingle(models.DecodeAboutPageContent))
	if err != nil {
		return models.AboutPageContent{}, err
	}
	return res.Data, nil
}

// Themes returns the themes page content.
func (s *Store) Themes(ctx context.Context) (models.ThemesPageContent, error) {
	res, err := apiclient.Do(ctx, s.c, apiclient.Request{
		Path: "/theme",
		Query: apiclient.Query{Populate: apiclient.Populate{Paths: []string{
			"sectorOverview", "sectorOverview.cards", "sectorOverview.cards.sector", "sectorOverview.header",
		}}},
	}, models.DecodeSingle(models.DecodeThemesPageContent))
	if err != nil {
		return models.ThemesPageContent{}, err
	}
	return res.Data, nil
}
