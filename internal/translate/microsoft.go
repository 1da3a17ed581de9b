// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/paperbot/internal/httputil"
)

// microsoftAPIBase is the Microsoft Translator endpoint. Declared as a var
// so tests can substitute an httptest server.
var microsoftAPIBase = "https://api.cognitive.microsofttranslator.com"

// Microsoft calls the Microsoft Translator v3 API.
type Microsoft struct {
	Client     *http.Client
	Key        string
	Region     string
	SourceLang string
}

// Name returns the provider identifier.
func (m *Microsoft) Name() string { return "microsoft" }

// Translate sends text to Microsoft Translator and returns the first
// translation.
func (m *Microsoft) Translate(ctx context.Context, text, targetLang string) (string, error) {
	params := url.Values{
		"api-version": {"3.0"},
		"to":          {strings.ToLower(targetLang)},
	}
	if m.SourceLang != "" {
		params.Set("from", strings.ToLower(m.SourceLang))
	}

	body, err := json.Marshal([]map[string]string{{"Text": text}})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, microsoftAPIBase+"/translate?"+params.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", m.Key)
	if m.Region != "" {
		req.Header.Set("Ocp-Apim-Subscription-Region", m.Region)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-ClientTraceId", uuid.NewString())

	resp, err := client(m.Client).Do(req)
	if err != nil {
		return "", fmt.Errorf("Microsoft Translator request: %w", err)
	}
	if err := httputil.CheckResponse(resp); err != nil {
		return "", fmt.Errorf("Microsoft Translator request: %w", err)
	}
	defer resp.Body.Close()

	var out []struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("parsing Microsoft Translator response: %w", err)
	}
	if len(out) == 0 || len(out[0].Translations) == 0 {
		return "", fmt.Errorf("Microsoft Translator returned no translations")
	}
	return out[0].Translations[0].Text, nil
}
