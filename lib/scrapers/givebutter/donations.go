package givebutter

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"butterdish-backend/lib/htmlutil"
	"butterdish-backend/lib/textutil"
	"butterdish-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const PlaceholderDonorName = "A generous supporter"

// the UI retains history, the service never returns more than this
const maxDonations = 10

// one observed contribution, most-recent first in any returned list
type Donation struct {
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	Time    string  `json:"time"`
	Message string  `json:"message,omitempty"`
}

// the upstream has changed its activity markup historically, so several
// selector conventions are tried per element, not merely per list
var (
	donationItemSelectors = `[data-testid="transaction-item"], .transaction-item, .activity-item`

	donorNameSelectors    = []string{`[data-testid="supporter-name"]`, ".supporter-name", ".donor-name"}
	donorNameFallbacks    = []string{"h3", "h4", ".name"}
	donationAmtSelectors  = []string{`[data-testid="transaction-amount"]`, ".amount", ".transaction-amount"}
	donationTimeSelectors = []string{`[data-testid="transaction-time"]`, ".time", "time"}
	donationMsgSelectors  = []string{`[data-testid="transaction-message"]`, ".message", ".comment"}
)

// scrapes donation events out of the activity widget markup. a nil/empty
// result means the caller should advance to the next fallback strategy.
func ScrapeDonations(ctx context.Context, page string) []Donation {
	ctx, span := tracer.Start(ctx, "ScrapeDonations")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse page markup")
		return nil
	}

	var donations []Donation
	doc.Find(donationItemSelectors).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(donations) >= maxDonations {
			return false
		}

		name := htmlutil.FirstText(item, donorNameSelectors...)
		if name == "" {
			name = htmlutil.FirstText(item, donorNameFallbacks...)
		}
		if name == "" {
			name = PlaceholderDonorName
		}

		amount := textutil.ParseAmount(htmlutil.FirstText(item, donationAmtSelectors...))

		timeLabel := htmlutil.FirstText(item, donationTimeSelectors...)
		if timeLabel == "" {
			timeLabel = textutil.ClockLabel(timezone.Now())
		}

		message := htmlutil.FirstText(item, donationMsgSelectors...)

		// elements that matched the item selector but carry no signal
		// are noise, not donations
		if amount > 0 || name != PlaceholderDonorName {
			donations = append(donations, Donation{
				Name:    name,
				Amount:  amount,
				Time:    timeLabel,
				Message: message,
			})
		}
		return true
	})

	slog.DebugContext(ctx, "scraped donation markup", "kept", len(donations))
	return donations
}

type rawTransaction struct {
	SupporterName string     `json:"supporter_name"`
	Name          string     `json:"name"`
	Amount        flexNumber `json:"amount"`
	Time          string     `json:"time"`
	CreatedAt     string     `json:"created_at"`
	Message       string     `json:"message"`
}

var transactionsArrayRegex = regexp.MustCompile(`(?s)transactions["']?\s*:\s*\[(.*?)\]`)

// speculative fallback: locates a transactions array literal inside an
// inline script block and parses it. a parse failure is "no result",
// never a fatal error.
func ExtractEmbeddedDonations(ctx context.Context, page string) []Donation {
	ctx, span := tracer.Start(ctx, "ExtractEmbeddedDonations")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse page markup")
		return nil
	}

	var scriptText string
	for _, script := range doc.Find("script").Nodes {
		text := htmlutil.GetText(script)
		if strings.Contains(text, "window.GB_CAMPAIGN") || strings.Contains(text, "transactions") {
			scriptText = text
			break
		}
	}
	if scriptText == "" {
		return nil
	}

	groups := transactionsArrayRegex.FindStringSubmatch(scriptText)
	if len(groups) < 2 {
		return nil
	}

	var transactions []rawTransaction
	err = json.Unmarshal([]byte("["+groups[1]+"]"), &transactions)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse embedded transactions")
		slog.WarnContext(ctx, "failed to parse embedded transactions", "err", err)
		return nil
	}

	var donations []Donation
	for _, t := range transactions {
		if len(donations) >= maxDonations {
			break
		}

		name := t.SupporterName
		if name == "" {
			name = t.Name
		}
		if name == "" {
			name = PlaceholderDonorName
		}

		amount := float64(t.Amount)
		if amount < 0 {
			amount = 0
		}

		timeLabel := t.Time
		if timeLabel == "" {
			timeLabel = createdAtLabel(t.CreatedAt)
		}

		if amount > 0 || name != PlaceholderDonorName {
			donations = append(donations, Donation{
				Name:    name,
				Amount:  amount,
				Time:    timeLabel,
				Message: t.Message,
			})
		}
	}

	slog.DebugContext(ctx, "extracted embedded transactions", "kept", len(donations))
	return donations
}

func createdAtLabel(createdAt string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		at, err := time.Parse(layout, createdAt)
		if err == nil {
			return textutil.ClockLabel(at)
		}
	}
	return textutil.ClockLabel(timezone.Now())
}
