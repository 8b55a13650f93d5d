package givebutter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"butterdish-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const DefaultThemeColor = "#F67B16"

// the current state of one fundraising campaign, fully populated,
// every field has a deterministic default
type Campaign struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Goal             float64 `json:"goal"`
	Raised           float64 `json:"raised"`
	RaisedPercentage float64 `json:"raised_percentage"`
	SupporterCount   int     `json:"supporter_count"`
	CoverImage       string  `json:"cover_image,omitempty"`
	ThemeColor       string  `json:"theme_color"`
	URL              string  `json:"url"`
	// set by the service at response time, not upstream
	Timestamp string `json:"timestamp"`
}

// tolerates the upstream's habit of encoding numbers as quoted strings,
// anything unparseable (including null) decodes to zero
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(string(data), `" `)
	if trimmed == "" || trimmed == "null" {
		*f = 0
		return nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexNumber(value)
	return nil
}

type rawCampaign struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Goal             flexNumber `json:"goal"`
	Raised           flexNumber `json:"raised"`
	RaisedPercentage flexNumber `json:"raised_percentage"`
	Cover            struct {
		URL string `json:"url"`
	} `json:"cover"`
	Settings []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"settings"`
	URL string `json:"url"`
}

// the campaign object is bounded on the left by its global assignment and
// on the right by the next sibling assignment in the same script block
var campaignObjectRegex = regexp.MustCompile(
	`(?s)window\.GB_CAMPAIGN\s*=\s*(\{.*?\});\s*window\.givebutterDefaults`,
)

// recovers the embedded campaign object from the raw page. this is the only
// extraction strategy for campaign totals, its failure is not recoverable.
func ExtractCampaign(ctx context.Context, page string) (Campaign, error) {
	ctx, span := tracer.Start(ctx, "ExtractCampaign")
	defer span.End()

	groups := campaignObjectRegex.FindStringSubmatch(page)
	if len(groups) < 2 {
		span.SetStatus(codes.Error, "bounded campaign assignment is absent")
		return Campaign{}, ErrCampaignDataNotFound
	}

	var raw rawCampaign
	err := json.Unmarshal([]byte(groups[1]), &raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to unmarshal campaign object")
		return Campaign{}, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}

	campaign := Campaign{
		ID:               raw.ID,
		Title:            raw.Title,
		Goal:             float64(raw.Goal),
		Raised:           float64(raw.Raised),
		RaisedPercentage: float64(raw.RaisedPercentage),
		SupporterCount:   extractSupporterCount(ctx, page),
		CoverImage:       raw.Cover.URL,
		ThemeColor:       themeColor(raw),
		URL:              raw.URL,
	}
	if campaign.Raised < 0 {
		campaign.Raised = 0
	}

	slog.DebugContext(
		ctx, "extracted campaign",
		"id", campaign.ID,
		"raised", campaign.Raised,
		"goal", campaign.Goal,
		"supporters", campaign.SupporterCount,
	)
	return campaign, nil
}

func themeColor(raw rawCampaign) string {
	for _, setting := range raw.Settings {
		if setting.Name == "theme_color" && setting.Value != "" {
			return setting.Value
		}
	}
	return DefaultThemeColor
}

// the supporter counter lives in the rendered markup rather than the
// embedded object. this is a lower-confidence signal that fails
// independently, absence defaults to 1 instead of failing the extraction.
func extractSupporterCount(ctx context.Context, page string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		slog.WarnContext(ctx, "failed to parse campaign page markup", "err", err)
		return 1
	}

	text := htmlutil.CleanText(doc.Find(`[data-part="supporters"] span`).First().Text())
	count := leadingInt(text)
	if count < 1 {
		return 1
	}
	return count
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	value, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return value
}
