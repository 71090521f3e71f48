package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/lotwatch/internal/utils/url"
	"github.com/law-makers/lotwatch/pkg/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WriteHTML renders r as a standalone HTML page with one table row per lot.
func WriteHTML(w io.Writer, r Report) error {
	if _, err := io.WriteString(w, "<!DOCTYPE html>\n"); err != nil {
		return err
	}
	return html.Render(w, reportDocument(r))
}

func reportDocument(r Report) *html.Node {
	title := r.Title
	if title == "" {
		title = "Lots"
	}

	doc := elem(atom.Html)
	head := elem(atom.Head)
	head.AppendChild(withAttr(elem(atom.Meta), "charset", "utf-8"))
	head.AppendChild(withText(elem(atom.Title), title))
	doc.AppendChild(head)

	body := elem(atom.Body)
	body.AppendChild(withText(elem(atom.H1), title))
	body.AppendChild(withText(elem(atom.P), fmt.Sprintf("%d lots", len(r.Lots))))

	table := elem(atom.Table)
	thead := elem(atom.Thead)
	hr := elem(atom.Tr)
	for _, h := range []string{"Lot", "Title", "Location", "Ends", "Condition", "Description", "Images"} {
		hr.AppendChild(withText(elem(atom.Th), h))
	}
	thead.AppendChild(hr)
	table.AppendChild(thead)

	tbody := elem(atom.Tbody)
	for _, lot := range r.Lots {
		tbody.AppendChild(lotRow(r.BaseURL, lot))
	}
	table.AppendChild(tbody)
	body.AppendChild(table)
	doc.AppendChild(body)
	return doc
}

func lotRow(baseURL string, lot models.Lot) *html.Node {
	tr := elem(atom.Tr)

	number := lot.LotNumber
	if number == "" {
		number = lot.LotID
	}
	lotCell := elem(atom.Td)
	if href := lotHref(baseURL, lot); href != "" {
		lotCell.AppendChild(withText(withAttr(elem(atom.A), "href", href), number))
	} else {
		lotCell.AppendChild(text(number))
	}
	tr.AppendChild(lotCell)

	for _, v := range []string{lot.Title, lot.Location, endsAt(lot), lot.Condition, lot.Description} {
		tr.AppendChild(withText(elem(atom.Td), v))
	}

	images := elem(atom.Td)
	for _, src := range lot.ImageURLs {
		images.AppendChild(withAttr(withAttr(elem(atom.Img), "src", src), "alt", lot.Title))
	}
	tr.AppendChild(images)
	return tr
}

func lotHref(baseURL string, lot models.Lot) string {
	if lot.URL != "" {
		return lot.URL
	}
	if baseURL == "" || lot.LotID == "" {
		return ""
	}
	return urlutil.ResolveURL(strings.TrimRight(baseURL, "/")+"/", "lot/"+lot.LotID)
}

func elem(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func withText(n *html.Node, s string) *html.Node {
	n.AppendChild(text(s))
	return n
}

func withAttr(n *html.Node, key, val string) *html.Node {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	return n
}

// CleanHTML removes unwanted elements and attributes to produce a safe HTML excerpt
func CleanHTML(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	// Remove unwanted tags
	doc.Find("head, script, style, link, meta, noscript, iframe, svg, form, input, button, select, textarea, canvas").Remove()

	// Clean attributes
	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		node := s.Nodes[0]
		var newAttrs []html.Attribute
		for _, attr := range node.Attr {
			keep := false
			switch node.Data {
			case "a":
				keep = attr.Key == "href" || attr.Key == "title"
			case "img":
				keep = attr.Key == "src" || attr.Key == "alt" || attr.Key == "title"
			}
			if keep {
				newAttrs = append(newAttrs, attr)
			}
		}
		node.Attr = newAttrs
	})

	htmlStr, err := doc.Find("body").Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(htmlStr), nil
}
