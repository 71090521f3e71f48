// Package detail visits a lot's detail page and turns a candidate into an enriched lot.
package detail

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/lotwatch/internal/engine"
)

const (
	ContainerSelector   = ".item-details"
	conditionSelector   = ".item-field.value"
	descriptionSelector = ".item-field > div.item-field-value"
	galleryTrigger      = ".item-image"
	galleryImage        = ".lg-object.lg-image"
	currentImage        = ".lg-current .lg-object.lg-image"
	thumbItem           = ".lg-thumb-item"
)

// Boilerplate the site renders inside the condition field.
var conditionNoise = []string{
	"Condition: ",
	"SHIPPING QUOTE FOR THIS ITEM --> Click Here",
}

// disableAnimations makes the image viewer switch slides instantly.
const disableAnimations = `(() => {
	const style = document.createElement('style');
	style.textContent = '*, *::after, *::before {' +
		'transition-delay: 0s !important; transition-duration: 0s !important;' +
		'animation-delay: -0.0001s !important; animation-duration: 0s !important;' +
		'animation-play-state: paused !important; }';
	document.head.appendChild(style);
	return true;
})()`

// Fields is what the detail page says about a lot before the gallery is opened.
type Fields struct {
	Condition   string
	Description string
	HasGallery  bool
}

// ParseFields reads condition and description from a detail page snapshot.
func ParseFields(html string) (Fields, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Fields{}, engine.NewEngineError(engine.ErrCodeParseError, "parsing detail page", err)
	}

	return Fields{
		Condition:   CleanCondition(doc.Find(conditionSelector).First().Text()),
		Description: strings.TrimSpace(doc.Find(descriptionSelector).First().Text()),
		HasGallery:  doc.Find(galleryTrigger).Length() > 0,
	}, nil
}

// CleanCondition strips the site's boilerplate from a condition string.
func CleanCondition(raw string) string {
	s := strings.TrimSpace(raw)
	for _, noise := range conditionNoise {
		s = strings.Replace(s, noise, "", 1)
	}
	return strings.TrimSpace(s)
}

// thumbIDs returns the viewer's thumbnail ids in document order.
func thumbIDs(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var ids []string
	doc.Find(thumbItem).Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("data-lg-item-id"); ok {
			ids = append(ids, id)
		}
	})
	return ids
}
