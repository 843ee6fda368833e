package aowotoy

import (
	"encoding/json"
	"regexp"
	"strings"
)

// payloadRe matches the storefront's bootstrap call that embeds the product
// as a JSON string literal, e.g. app.value('product', JSON.parse('{...}'));
var payloadRe = regexp.MustCompile(`(?s)[\w$]+\.value\('product',\s*JSON\.parse\('(.*?)'\)\)`)

// payloadUnescaper undoes the JS string literal escaping in one pass, so an
// escaped backslash stays attached to the JSON escape that follows it.
var payloadUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\'`, `'`, `\/`, `/`)

type translations map[string]string

// Get returns the translation for locale. Non-string values decode as empty.
func (t translations) Get(locale string) (string, bool) {
	v, ok := t[locale]
	return v, ok && v != ""
}

func (t *translations) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(translations, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	*t = out
	return nil
}

type money struct {
	Dollars float64 `json:"dollars"`
}

type field struct {
	NameTranslations translations `json:"name_translations"`
}

type variation struct {
	Key    string  `json:"key"`
	Price  *money  `json:"price"`
	Fields []field `json:"fields"`
}

type mediaImage struct {
	URL string `json:"url"`
}

type media struct {
	Images struct {
		Original mediaImage `json:"original"`
	} `json:"images"`
}

type productPayload struct {
	ID                  string       `json:"_id"`
	TitleTranslations   translations `json:"title_translations"`
	SummaryTranslations translations `json:"summary_translations"`
	Price               *money       `json:"price"`
	Variations          []variation  `json:"variations"`
	Media               []media      `json:"media"`
}

// locatePayload returns the raw JS string literal holding the product JSON.
func locatePayload(html string) (string, bool) {
	m := payloadRe.FindStringSubmatch(html)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func decodePayload(literal string) (*productPayload, error) {
	var p productPayload
	if err := json.Unmarshal([]byte(payloadUnescaper.Replace(literal)), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
