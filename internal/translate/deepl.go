// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/paperbot/internal/httputil"
)

// DeepL endpoints. Keys ending in ":fx" belong to the free tier, which has
// its own host. Declared as vars so tests can substitute an httptest server.
var (
	deeplAPIBase     = "https://api.deepl.com"
	deeplFreeAPIBase = "https://api-free.deepl.com"
)

// DeepL calls the DeepL v2 translate API.
type DeepL struct {
	Client     *http.Client
	APIKey     string
	SourceLang string
}

// Name returns the provider identifier.
func (d *DeepL) Name() string { return "deepl" }

func (d *DeepL) baseURL() string {
	if strings.HasSuffix(d.APIKey, ":fx") {
		return deeplFreeAPIBase
	}
	return deeplAPIBase
}

// Translate sends text to DeepL and returns the first translation.
func (d *DeepL) Translate(ctx context.Context, text, targetLang string) (string, error) {
	form := url.Values{
		"text":        {text},
		"target_lang": {strings.ToUpper(targetLang)},
	}
	if d.SourceLang != "" {
		form.Set("source_lang", strings.ToUpper(d.SourceLang))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL()+"/v2/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client(d.Client).Do(req)
	if err != nil {
		return "", fmt.Errorf("DeepL request: %w", err)
	}
	if err := httputil.CheckResponse(resp); err != nil {
		return "", fmt.Errorf("DeepL request: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("parsing DeepL response: %w", err)
	}
	if len(out.Translations) == 0 {
		return "", fmt.Errorf("DeepL returned no translations")
	}
	return out.Translations[0].Text, nil
}

func client(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
