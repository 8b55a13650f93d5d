package givebutter

import (
	"context"
	"fmt"
	"net/url"

	"butterdish-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// the campaign page serves a fully rendered document, no auth required
const DefaultPageURL = "https://givebutter.com/giftofaccess"

var (
	ErrUpstreamUnreachable     = fmt.Errorf("campaign page is unreachable")
	ErrUpstreamError           = fmt.Errorf("campaign page returned an error status")
	ErrCampaignDataNotFound    = fmt.Errorf("campaign data not found in page")
	ErrMalformedExtraction     = fmt.Errorf("located campaign data failed to parse")
	ErrFeedCredentialsNotFound = fmt.Errorf("feed credentials not found in page")
	ErrFeedUnavailable         = fmt.Errorf("activity feed returned an error status")
)

type Client struct {
	pageURL string
	feedURL string
	page    *resty.Client
	feed    *resty.Client
}

type ClientOptions struct {
	// defaults to DefaultPageURL
	PageURL string
	// defaults to DefaultFeedURL
	FeedURL string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.PageURL == "" {
		opts.PageURL = DefaultPageURL
	}
	if opts.FeedURL == "" {
		opts.FeedURL = DefaultFeedURL
	}
	if _, err := url.Parse(opts.PageURL); err != nil {
		return nil, err
	}
	if _, err := url.Parse(opts.FeedURL); err != nil {
		return nil, err
	}

	page := newPageClient()
	telemetry.InstrumentResty(page, "scrapers/givebutter/page")

	feed := newFeedClient()
	telemetry.InstrumentResty(feed, "scrapers/givebutter/feed")

	return &Client{
		pageURL: opts.PageURL,
		feedURL: opts.FeedURL,
		page:    page,
		feed:    feed,
	}, nil
}

func newPageClient() *resty.Client {
	page := resty.New()
	page.SetHeader("User-Agent", "Mozilla/5.0 (compatible; ButterDish/1.0)")
	// each fetch must observe current upstream state
	page.SetHeader("Cache-Control", "no-cache")
	page.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(page.GetClient().Transport)
	return page
}

func newFeedClient() *resty.Client {
	return resty.New()
}

// performs a single GET of the campaign page, returning the raw document.
// no retries, a miss surfaces to the caller's fallback path.
func (c *Client) FetchPage(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchPage")
	defer span.End()

	res, err := c.page.R().
		SetContext(ctx).
		Get(c.pageURL)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch campaign page")
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "campaign page returned an error status")
		return "", fmt.Errorf("%w: %s", ErrUpstreamError, res.Status())
	}

	return string(res.Body()), nil
}
