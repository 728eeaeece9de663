package menu

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"bentobot/lib/telemetry"
	"bentobot/lib/timezone"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const DefaultGeminiModel = "gemini-2.5-flash"

const geminiBaseUrl = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"

// the format example is spelled out because the model follows a shown
// shape far more reliably than a described one
const extractionPrompt = `この PDF はランチメニュー表です。
全ての日付について、あいランチと和風ランチの情報を抽出し、以下のフォーマットの JSON 配列で出力してください。

ルール:
- YYYY が取得できない場合は %d を使用してください。
- 土曜・日曜・祝日のメニューは含めないでください。
- JSON のみを出力し、説明文もマークダウンも付けないでください。

フォーマット:
[
  {
    "date": "YYYY-MM-DD",
    "ai_lunch": "おかず1, おかず2, ...",
    "wafu_lunch": "おかず1, おかず2, ..."
  }
]`

var MissingApiKey = fmt.Errorf("menu extraction requires GOOGLE_API_KEY")

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	// "application/json" keeps the model from wrapping its output in
	// markdown fences
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float32 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Extractor turns a menu pdf into MenuDay rows with a single Gemini
// call, the pdf rides along inline as base64.
type Extractor struct {
	http    *resty.Client
	model   string
	apiKey  string
	baseUrl string
}

func NewExtractor(model string) Extractor {
	if model == "" {
		model = DefaultGeminiModel
	}

	client := resty.New().SetTimeout(time.Minute * 2)
	telemetry.InstrumentResty(client, "services/menu/gemini")

	return Extractor{
		http:    client,
		model:   model,
		apiKey:  os.Getenv("GOOGLE_API_KEY"),
		baseUrl: geminiBaseUrl,
	}
}

func (e Extractor) ExtractDays(ctx context.Context, pdfPath string) ([]MenuDay, error) {
	ctx, span := tracer.Start(ctx, "gemini:ExtractDays")
	defer span.End()

	if e.apiKey == "" {
		span.SetStatus(codes.Error, MissingApiKey.Error())
		return nil, MissingApiKey
	}

	raw, err := os.ReadFile(pdfPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read pdf")
		return nil, err
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{
					MimeType: "application/pdf",
					Data:     base64.StdEncoding.EncodeToString(raw),
				}},
				{Text: fmt.Sprintf(extractionPrompt, timezone.Now().Year())},
			},
		}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			Temperature:      0.2,
		},
	}

	res, err := e.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(fmt.Sprintf(e.baseUrl, e.model, e.apiKey))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gemini request failed")
		return nil, err
	}

	var parsed geminiResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if res.IsError() {
		if err == nil && parsed.Error != nil {
			return nil, fmt.Errorf("gemini error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		return nil, fmt.Errorf("gemini returned status %d", res.StatusCode())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gemini response is not json")
		return nil, err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned an empty response")
	}

	text := stripJsonFences(parsed.Candidates[0].Content.Parts[0].Text)

	var days []MenuDay
	err = json.Unmarshal([]byte(text), &days)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gemini returned invalid menu json")
		return nil, fmt.Errorf("gemini returned invalid menu json: %w", err)
	}

	source := filepath.Base(pdfPath)
	byDate := map[string]MenuDay{}
	for _, day := range days {
		day.Date = normalizeExtractedDate(day.Date)
		day.SourcePDF = source
		byDate[day.Date] = day
	}

	merged := make([]MenuDay, 0, len(byDate))
	for _, day := range byDate {
		merged = append(merged, day)
	}
	slices.SortFunc(merged, func(a, b MenuDay) int {
		return strings.Compare(a.Date, b.Date)
	})

	slog.InfoContext(ctx, "extracted menu days", "pdf", source, "days", len(merged))
	return merged, nil
}

// the model occasionally fences its output anyway, even when asked
// for bare json
func stripJsonFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		_, rest, found := strings.Cut(text, "\n")
		if found {
			text = rest
		}
	}
	if strings.HasSuffix(text, "```") {
		text = text[:strings.LastIndex(text, "```")]
	}
	return strings.TrimSpace(text)
}

var extractedDateFormats = []string{"2006-01-02", "2006/01/02"}

func normalizeExtractedDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, format := range extractedDateFormats {
		parsed, err := time.Parse(format, raw)
		if err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return raw
}
