package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"butterdish-backend/lib/scrapers/givebutter"
	"butterdish-backend/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

const healthyPage = `<!DOCTYPE html>
<html>
<head>
  <script>
    window.GB_CAMPAIGN = {"id":189069,"title":"Gift of Access","goal":20000,"raised":"1500.00","url":"https://givebutter.com/giftofaccess"};
    window.givebutterDefaults = {};
  </script>
</head>
<body>
  <div data-part="supporters"><span>17</span></div>
  <div class="transaction-item">
    <span class="donor-name">Jane Doe</span>
    <span class="amount">$25.00</span>
    <span class="time">2 minutes ago</span>
  </div>
</body>
</html>`

const maintenancePage = `<html><body><p>back soon</p></body></html>`

func setupService(t testing.TB, page string) (*http.ServeMux, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:services/dashboard")

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))

	scraper, err := givebutter.NewClient(givebutter.ClientOptions{
		PageURL: upstream.URL,
		// point the feed at the dead upstream path so the bridge cannot
		// accidentally reach the real endpoint from tests
		FeedURL: upstream.URL + "/feed",
	})
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	NewService(scraper).RegisterRoutes(mux)

	return mux, func() {
		upstream.Close()
		cleanup()
	}
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestCampaignSnapshot(t *testing.T) {
	mux, cleanup := setupService(t, healthyPage)
	defer cleanup()

	res := get(mux, "/campaign")
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "public, s-maxage=30, stale-while-revalidate=59", res.Header().Get("Cache-Control"))

	var campaign givebutter.Campaign
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &campaign))

	require.Equal(t, int64(189069), campaign.ID)
	require.Equal(t, 1500.0, campaign.Raised)
	require.Equal(t, 0.0, campaign.RaisedPercentage)
	require.Equal(t, 17, campaign.SupporterCount)
	require.NotEmpty(t, campaign.Timestamp)
}

func TestCampaignSnapshotIdempotent(t *testing.T) {
	mux, cleanup := setupService(t, healthyPage)
	defer cleanup()

	var first, second givebutter.Campaign
	require.NoError(t, json.Unmarshal(get(mux, "/campaign").Body.Bytes(), &first))
	require.NoError(t, json.Unmarshal(get(mux, "/campaign").Body.Bytes(), &second))

	diff := cmp.Diff(first, second, cmpopts.IgnoreFields(givebutter.Campaign{}, "Timestamp"))
	require.Empty(t, diff)
}

func TestCampaignDataMissing(t *testing.T) {
	mux, cleanup := setupService(t, maintenancePage)
	defer cleanup()

	res := get(mux, "/campaign")
	require.Equal(t, http.StatusInternalServerError, res.Code)

	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "campaign_data_not_found", body.Error)
	require.NotEmpty(t, body.Details)
}

func TestDonorsScraped(t *testing.T) {
	mux, cleanup := setupService(t, healthyPage)
	defer cleanup()

	res := get(mux, "/donors")
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "public, s-maxage=30, stale-while-revalidate=59", res.Header().Get("Cache-Control"))

	var body struct {
		Donors []givebutter.Donation `json:"donors"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Len(t, body.Donors, 1)
	require.Equal(t, "Jane Doe", body.Donors[0].Name)
	require.Equal(t, 25.0, body.Donors[0].Amount)
}

func TestDonorsSampleFallback(t *testing.T) {
	// markup, embedded transactions and feed credentials are all absent,
	// the chain exhausts into the static samples
	mux, cleanup := setupService(t, maintenancePage)
	defer cleanup()

	res := get(mux, "/donors")
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "public, s-maxage=30", res.Header().Get("Cache-Control"))

	var body struct {
		Donors []givebutter.Donation `json:"donors"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Len(t, body.Donors, 2)

	require.Equal(t, "Mark Williams", body.Donors[0].Name)
	require.Equal(t, 10.0, body.Donors[0].Amount)
	require.Empty(t, body.Donors[0].Message)

	require.Equal(t, "Will Sigmon", body.Donors[1].Name)
	require.Equal(t, 5.0, body.Donors[1].Amount)
	require.Equal(t, "Let's go, HTI!", body.Donors[1].Message)
}

func TestDonorsNeverFailsOnUpstreamOutage(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/dashboard")
	defer cleanup()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	link := upstream.URL
	upstream.Close()

	scraper, err := givebutter.NewClient(givebutter.ClientOptions{PageURL: link})
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewService(scraper).RegisterRoutes(mux)

	res := get(mux, "/donors")
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Donors []givebutter.Donation `json:"donors"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Len(t, body.Donors, 2)
}
