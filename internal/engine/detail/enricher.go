package detail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/law-makers/lotwatch/internal/downloader"
	"github.com/law-makers/lotwatch/internal/engine/browser"
	"github.com/law-makers/lotwatch/internal/engine/terms"
	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/rs/zerolog/log"
)

// ImageSaver stores a lot's images and returns the filenames actually written, in order.
type ImageSaver interface {
	SaveLotImages(ctx context.Context, lotID string, urls []string) []string
}

// Enricher fills in detail fields for candidates.
type Enricher struct {
	BaseURL        string
	WaitTimeout    time.Duration
	GalleryTimeout time.Duration
	Images         ImageSaver
}

// DetailURL returns the canonical detail page for lotID.
func (e *Enricher) DetailURL(lotID string) string {
	return strings.TrimRight(e.BaseURL, "/") + "/lot/" + lotID
}

// Enrich visits the lot's detail page on page. A lot whose description fails the
// search's description terms is returned with that verdict and nothing downloaded.
// Any returned error means the lot could not be enriched.
func (e *Enricher) Enrich(ctx context.Context, page browser.Page, lot models.Lot, search models.Search) (models.Lot, terms.Verdict, error) {
	url := e.DetailURL(lot.LotID)

	if err := page.Navigate(ctx, url); err != nil {
		return lot, terms.Accepted, err
	}
	if err := page.WaitVisible(ctx, ContainerSelector, e.WaitTimeout); err != nil {
		return lot, terms.Accepted, err
	}
	if err := page.Evaluate(ctx, disableAnimations); err != nil {
		log.Debug().Err(err).Str("lot_id", lot.LotID).Msg("Could not disable page animations")
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return lot, terms.Accepted, err
	}
	fields, err := ParseFields(html)
	if err != nil {
		return lot, terms.Accepted, err
	}

	if v := terms.Match(fields.Description, search.RequiredDescTerms, search.IgnoredDescTerms); v != terms.Accepted {
		return lot, v, nil
	}

	lot.URL = url
	lot.Condition = fields.Condition
	lot.Description = fields.Description

	var images []string
	if fields.HasGallery {
		images, err = e.gallery(ctx, page, url)
		if err != nil {
			return lot, terms.Accepted, fmt.Errorf("gallery: %w", err)
		}
	}

	lot.ImageURLs = images
	lot.ThumbnailCount = len(images)
	if e.Images != nil && len(images) > 0 {
		lot.ImageFilenames = e.Images.SaveLotImages(ctx, lot.LotID, images)
	}

	if fields.HasGallery {
		if err := page.PressEscape(ctx); err != nil {
			log.Debug().Err(err).Str("lot_id", lot.LotID).Msg("Could not close image viewer")
		}
	}

	log.Debug().
		Str("lot_id", lot.LotID).
		Int("images", len(images)).
		Int("saved", len(lot.ImageFilenames)).
		Msg("Lot enriched")

	return lot, terms.Accepted, nil
}

// gallery opens the image viewer and walks every thumbnail, returning the hero
// image first followed by each distinct slide image.
func (e *Enricher) gallery(ctx context.Context, page browser.Page, pageURL string) ([]string, error) {
	if err := page.Click(ctx, galleryTrigger); err != nil {
		return nil, err
	}
	if err := page.WaitVisible(ctx, galleryImage, e.GalleryTimeout); err != nil {
		return nil, err
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}

	var urls []string
	urls = append(urls, displayed(html, pageURL)...)

	for _, id := range thumbIDs(html) {
		selector := fmt.Sprintf(`%s[data-lg-item-id="%s"]`, thumbItem, id)
		if err := page.Click(ctx, selector); err != nil {
			log.Debug().Err(err).Str("thumb", id).Msg("Thumbnail not clickable, skipping")
			continue
		}
		if err := page.WaitVisible(ctx, currentImage, e.GalleryTimeout); err != nil {
			log.Debug().Err(err).Str("thumb", id).Msg("Slide image did not load, skipping")
			continue
		}
		slide, err := page.HTML(ctx)
		if err != nil {
			return nil, err
		}
		urls = append(urls, displayed(slide, pageURL)...)
		html = slide
	}

	// Slides the viewer preloaded without us visiting them.
	if rest, err := downloader.ExtractImages(html, pageURL, galleryImage); err == nil {
		urls = append(urls, rest...)
	}

	return downloader.Dedupe(urls), nil
}

// displayed returns the displayed slide's image, falling back to the first viewer image.
func displayed(html, pageURL string) []string {
	if urls, err := downloader.ExtractImages(html, pageURL, currentImage); err == nil && len(urls) > 0 {
		return urls[:1]
	}
	if urls, err := downloader.ExtractImages(html, pageURL, galleryImage); err == nil && len(urls) > 0 {
		return urls[:1]
	}
	return nil
}
