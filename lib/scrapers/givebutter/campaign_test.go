package givebutter

import (
	"context"
	"testing"

	"butterdish-backend/lib/telemetry"

	"github.com/stretchr/testify/require"

	_ "embed"
)

//go:embed campaign_page_test.html
var campaignPageTest string

//go:embed embedded_page_test.html
var embeddedPageTest string

//go:embed feed_page_test.html
var feedPageTest string

func TestExtractCampaign(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/givebutter")
	defer cleanup()

	campaign, err := ExtractCampaign(context.Background(), campaignPageTest)
	require.NoError(t, err)

	require.Equal(t, int64(189069), campaign.ID)
	require.Equal(t, "Gift of Access", campaign.Title)
	require.Equal(t, float64(20000), campaign.Goal)
	require.Equal(t, 1500.0, campaign.Raised)
	// upstream reported no percentage, the default must hold
	require.Equal(t, 0.0, campaign.RaisedPercentage)
	require.Equal(t, 42, campaign.SupporterCount)
	require.Equal(t, "https://cdn.givebutter.com/media/cover.jpg", campaign.CoverImage)
	require.Equal(t, "#1e3a5f", campaign.ThemeColor)
	require.Equal(t, "https://givebutter.com/giftofaccess", campaign.URL)
}

func TestExtractCampaignDefaults(t *testing.T) {
	page := `<html><head><script>
		window.GB_CAMPAIGN = {"id":7,"title":"Tiny","goal":100,"raised":""};
		window.givebutterDefaults = {};
	</script></head><body></body></html>`

	campaign, err := ExtractCampaign(context.Background(), page)
	require.NoError(t, err)

	require.Equal(t, 0.0, campaign.Raised)
	require.Equal(t, 0.0, campaign.RaisedPercentage)
	require.Equal(t, 1, campaign.SupporterCount)
	require.Equal(t, DefaultThemeColor, campaign.ThemeColor)
	require.Empty(t, campaign.CoverImage)
}

func TestExtractCampaignNotFound(t *testing.T) {
	page := `<html><body><p>under maintenance</p></body></html>`

	_, err := ExtractCampaign(context.Background(), page)
	require.ErrorIs(t, err, ErrCampaignDataNotFound)
}

func TestExtractCampaignMalformed(t *testing.T) {
	page := `<html><head><script>
		window.GB_CAMPAIGN = {oops};
		window.givebutterDefaults = {};
	</script></head><body></body></html>`

	_, err := ExtractCampaign(context.Background(), page)
	require.ErrorIs(t, err, ErrMalformedExtraction)
}
