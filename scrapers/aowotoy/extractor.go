package aowotoy

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/scrapers/base"
	"github.com/aowotoys/catalog-sync/utils"
)

const (
	detailSelector = "div.ProductDetail-description"
	detailHeading  = "商品描述"
	optionSep      = "+ "
)

// PriceMultiplier converts the storefront's dollar amount into the local
// price. It is applied exactly once, here.
var PriceMultiplier = decimal.NewFromInt(4)

// Extractor turns a rendered detail page into ProductRecords.
type Extractor struct {
	locale models.Locale
	log    *slog.Logger
}

func NewExtractor(locale models.Locale, log *slog.Logger) *Extractor {
	if locale == "" {
		locale = models.DefaultLocale
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{locale: locale, log: log}
}

// Extract reads the embedded product payload and the description node of
// page. The payload, its _id and the title in the configured locale are
// required; everything else degrades to an empty value plus a diagnostic.
func (e *Extractor) Extract(page *base.Page) (*models.Extraction, error) {
	literal, ok := locatePayload(page.HTML)
	if !ok {
		return nil, &ExtractionError{URL: page.URL, Kind: NoEmbeddedPayload}
	}

	p, err := decodePayload(literal)
	if err != nil {
		return nil, &ExtractionError{URL: page.URL, Kind: MalformedPayload, Err: err}
	}
	if p.ID == "" {
		return nil, &ExtractionError{URL: page.URL, Kind: MissingProductID}
	}

	locale := string(e.locale)
	title, ok := p.TitleTranslations.Get(locale)
	if !ok {
		return nil, &ExtractionError{URL: page.URL, Kind: MissingLocale, Err: fmt.Errorf("title has no %q translation", locale)}
	}

	out := &models.Extraction{ProductID: p.ID}
	note := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		out.Diagnostics = append(out.Diagnostics, msg)
		e.log.Debug("extraction diagnostic", slog.String("url", page.URL), slog.String("product_id", p.ID), slog.String("note", msg))
	}

	summary, ok := p.SummaryTranslations.Get(locale)
	if !ok {
		note("summary has no %q translation", locale)
	}

	detail, ok := e.detail(page)
	if !ok {
		note("description node %s not found", detailSelector)
	}

	newRecord := func(optionID string, price *money, option string) models.ProductRecord {
		if price == nil {
			note("variation %q has no price", optionID)
		}
		return models.ProductRecord{
			ProductID: p.ID,
			OptionID:  optionID,
			URL:       utils.VariantURL(page.URL, optionID),
			Name:      title,
			Summary:   summary,
			Price:     convertPrice(price),
			Option:    option,
			Detail:    detail,
		}
	}

	if len(p.Variations) == 0 {
		note("no variations, using product price")
		out.Records = append(out.Records, newRecord("", p.Price, ""))
	}
	for _, v := range p.Variations {
		names := make([]string, 0, len(v.Fields))
		for _, f := range v.Fields {
			name, _ := f.NameTranslations.Get(locale)
			names = append(names, name)
		}
		out.Records = append(out.Records, newRecord(v.Key, v.Price, strings.Join(names, optionSep)))
	}

	for _, m := range p.Media {
		out.ImageURLs = append(out.ImageURLs, utils.StripQuery(m.Images.Original.URL))
	}

	return out, nil
}

func (e *Extractor) detail(page *base.Page) (string, bool) {
	if page.Doc == nil {
		return "", false
	}
	sel := page.Doc.Find(detailSelector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(strings.ReplaceAll(sel.Text(), detailHeading, "")), true
}

// convertPrice applies PriceMultiplier to a payload amount and rounds to a
// whole number. A missing amount is zero.
func convertPrice(m *money) int64 {
	if m == nil {
		return 0
	}
	return decimal.NewFromFloat(m.Dollars).Mul(PriceMultiplier).Round(0).IntPart()
}
