package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"paper-vault/models"
	"paper-vault/providers"
	"paper-vault/providers/arxiv"
	"paper-vault/storage"
)

// CrawlerConfig enthält die Konfiguration des Crawler-Binaries.
type CrawlerConfig struct {
	APIBaseURL   string `envconfig:"API_BASE_URL" default:"http://localhost:8000"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	SearchQuery  string `envconfig:"SEARCH_QUERY" required:"true"`
	MaxResults   int    `envconfig:"MAX_RESULTS" default:"25"`
	ArxivBaseURL string `envconfig:"ARXIV_BASE_URL"`

	// Leer = einmaliger Lauf, sonst Cron-Ausdruck für den Dauerbetrieb.
	CronSchedule string `envconfig:"CRON_SCHEDULE"`

	// PDF-Archivierung nach S3 (optional)
	ArchivePDFs bool   `envconfig:"ARCHIVE_PDFS" default:"false"`
	S3Key       string `envconfig:"S3_KEY"`
	S3Secret    string `envconfig:"S3_SECRET"`
	S3URL       string `envconfig:"S3_URL"`
	S3Region    string `envconfig:"S3_REGION"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
}

func (c *CrawlerConfig) s3() storage.S3Config {
	return storage.S3Config{Key: c.S3Key, Secret: c.S3Secret, URL: c.S3URL, Region: c.S3Region, Bucket: c.S3Bucket}
}

// CustomTransport fügt jeder Anfrage einen User-Agent-Header hinzu.
type CustomTransport struct {
	Transport http.RoundTripper
}

func (t *CustomTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "paper-vault-crawler/1.0")
	return t.Transport.RoundTrip(req)
}

// httpClient wird für alle HTTP-Anfragen des Crawlers verwendet.
var httpClient = &http.Client{
	Timeout: 60 * time.Second,
	Transport: &CustomTransport{
		Transport: http.DefaultTransport,
	},
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	_ = godotenv.Load()
	var cfg CrawlerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}
	if cfg.ArchivePDFs && (cfg.S3Key == "" || cfg.S3URL == "" || cfg.S3Bucket == "") {
		logging.Fatal("ARCHIVE_PDFS requires S3_KEY, S3_URL and S3_BUCKET")
	}

	// Ein S3-Client pro Prozess, nicht pro Paper.
	var s3Client *s3.Client
	if cfg.ArchivePDFs {
		s3Client, err = storage.NewS3Client(cfg.s3())
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
	}

	fetcher := arxiv.NewFetcher(cfg.ArxivBaseURL, cfg.MaxResults, logging)

	if cfg.CronSchedule == "" {
		if err := runOnce(context.Background(), &cfg, fetcher, s3Client, logging); err != nil {
			logging.Fatal("Crawl failed", zap.Error(err))
		}
		return
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled crawl...")
		if err := runOnce(context.Background(), &cfg, fetcher, s3Client, logging); err != nil {
			logging.Error("Scheduled crawl failed", zap.Error(err))
		}
	}); err != nil {
		logging.Fatal("Invalid cron schedule", zap.String("schedule", cfg.CronSchedule), zap.Error(err))
	}
	logging.Info("Starting crawler in cron mode", zap.String("schedule", cfg.CronSchedule))
	scheduler.Run()
}

// runOnce führt einen vollständigen Crawl-Durchlauf aus: Suche, Push zur API
// und optional die PDF-Archivierung.
func runOnce(ctx context.Context, cfg *CrawlerConfig, provider providers.Provider, s3Client *s3.Client, logger *zap.Logger) error {
	papers, err := provider.Search(cfg.SearchQuery)
	if err != nil {
		return fmt.Errorf("suche auf %s fehlgeschlagen: %w", provider.Name(), err)
	}

	var created, duplicates int
	for _, paper := range papers {
		log := logger.With(zap.String("id", paper.ID))

		status, err := pushPaper(ctx, cfg, paper)
		if err != nil {
			log.Warn("Push zur API fehlgeschlagen", zap.Error(err))
			continue
		}
		switch status {
		case http.StatusCreated:
			created++
			log.Info("Paper angelegt.")
		case http.StatusConflict:
			duplicates++
			log.Debug("Paper bereits vorhanden, wird übersprungen.")
			continue
		default:
			log.Warn("Unerwarteter API-Status", zap.Int("status", status))
			continue
		}

		if cfg.ArchivePDFs {
			if err := archivePDF(ctx, cfg, s3Client, paper, log); err != nil {
				log.Warn("PDF-Archivierung fehlgeschlagen", zap.Error(err))
			}
		}
	}

	logger.Info("Crawl abgeschlossen",
		zap.Int("found", len(papers)),
		zap.Int("created", created),
		zap.Int("duplicates", duplicates))
	return nil
}

// pushPaper schickt ein Paper als Create-Request an die API.
func pushPaper(ctx context.Context, cfg *CrawlerConfig, paper *models.Paper) (int, error) {
	body, err := json.Marshal(paper)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+"/paper/", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APISecretKey != "" {
		req.Header.Set("X-API-KEY", cfg.APISecretKey)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// archivePDF lädt die PDF herunter, legt sie im S3-Archiv ab und setzt den
// download_path des Papers über die API.
func archivePDF(ctx context.Context, cfg *CrawlerConfig, s3Client *s3.Client, paper *models.Paper, log *zap.Logger) error {
	data, err := downloadPDF(ctx, paper.PDFURL)
	if err != nil {
		return err
	}

	key := pdfKey(paper.ID)
	link, err := storage.UploadFile(ctx, s3Client, cfg.s3(), key, data)
	if err != nil {
		return err
	}
	log.Info("PDF nach S3 hochgeladen", zap.String("key", key))

	update, err := json.Marshal(models.PaperUpdate{DownloadPath: &link})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		cfg.APIBaseURL+"/paper/"+url.PathEscape(paper.ID), bytes.NewReader(update))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APISecretKey != "" {
		req.Header.Set("X-API-KEY", cfg.APISecretKey)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download_path update failed with status %d", resp.StatusCode)
	}
	return nil
}

// downloadPDF lädt eine PDF-Ressource herunter.
func downloadPDF(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// pdfKey leitet einen S3-Objektschlüssel aus der Paper-ID ab.
func pdfKey(id string) string {
	key := strings.TrimPrefix(id, "http://")
	key = strings.TrimPrefix(key, "https://")
	key = strings.ReplaceAll(key, "/", "_")
	return key + ".pdf"
}
