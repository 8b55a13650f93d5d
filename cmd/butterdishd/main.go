package main

import (
	"flag"
	"net/http"
	"os"

	"butterdish-backend/lib/configutil"
	"butterdish-backend/lib/scrapers/givebutter"
	"butterdish-backend/lib/serviceutil"
	"butterdish-backend/services/dashboard"
)

type CampaignConfig struct {
	PageUrl string `json:"page_url"`
	FeedUrl string `json:"feed_url"`
}

type Config struct {
	Port     int            `json:"port"`
	Campaign CampaignConfig `json:"campaign"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	// the service runs fine with no config file, everything has a default
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	scraper, err := givebutter.NewClient(givebutter.ClientOptions{
		PageURL: cfg.Campaign.PageUrl,
		FeedURL: cfg.Campaign.FeedUrl,
	})
	if err != nil {
		serviceutil.Fatal("init scraper", err)
	}
	InstrumentScraper(scraper, *verbose)

	mux := http.NewServeMux()
	dashboard.NewService(scraper).RegisterRoutes(mux)

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()
}
