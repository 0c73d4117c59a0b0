package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	geminiBase  = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel = "gemini-1.5-flash"
)

// ErrMalformedExtraction means the model answered with something that is not
// the requested JSON object. The admin is asked to retry the add workflow.
var ErrMalformedExtraction = errors.New("extraction response was not valid JSON")

// ExtractedBook holds the listing fields read off a cover photo.
type ExtractedBook struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Year        int    `json:"year"`
	Edition     string `json:"edition"`
	Condition   string `json:"condition"`
	Description string `json:"description"`
}

const extractPrompt = `Analyze this book cover image.
1. Identify the Title and Author of the book from the text on the cover.
2. Using your knowledge about this specific book, write a "description" that
   serves as a curatorial note: the book's plot, themes, literary
   significance, and why it is worth collecting. Do not describe the cover
   art itself.

Return strictly valid JSON:
{
    "title": "Book Title (identified from cover)",
    "author": "Author Name (identified from cover)",
    "year": 1900 (estimate if not visible, as integer),
    "edition": "First Edition (or 'Unknown')",
    "condition": "Good (estimate from visible wear)",
    "description": "A rich, engaging curation note about the book."
}`

// Extractor asks a multimodal model to read listing fields off a cover photo.
type Extractor struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewExtractor(apiKey string) *Extractor {
	return &Extractor{
		BaseURL: geminiBase,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inline_data,omitempty"`
}

type geminiBlob struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ExtractFromCover sends the cover image plus the instruction prompt and
// parses the structured reply. Models often wrap JSON in markdown fences,
// so those are stripped before decoding; anything still unparseable is
// reported as ErrMalformedExtraction.
func (e *Extractor) ExtractFromCover(ctx context.Context, image []byte, mimeType string) (*ExtractedBook, error) {
	payload := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{
		{Text: extractPrompt},
		{InlineData: &geminiBlob{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(image),
		}},
	}}}}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := e.BaseURL + "/models/" + geminiModel + ":generateContent?key=" + e.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction service returned %d", resp.StatusCode)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedExtraction)
	}

	text := out.Candidates[0].Content.Parts[0].Text
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	var extracted ExtractedBook
	if err := json.Unmarshal([]byte(text), &extracted); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}
	return &extracted, nil
}
