package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kelseyhightower/envconfig"

	"paper-vault/storage"
)

type BackupConfig struct {
	MongoURI        string `envconfig:"MONGO_URI" required:"true"`
	MongoDB         string `envconfig:"DB_NAME" required:"true"`
	BackupBucket    string `envconfig:"BACKUP_S3_BUCKET" required:"true"`
	BackupEndpoint  string `envconfig:"BACKUP_S3_ENDPOINT" required:"true"`
	BackupAccessKey string `envconfig:"BACKUP_S3_ACCESS_KEY" required:"true"`
	BackupSecretKey string `envconfig:"BACKUP_S3_SECRET_KEY" required:"true"`
	BackupRegion    string `envconfig:"BACKUP_S3_REGION" required:"true"`
	KeepBackups     int    `envconfig:"KEEP_BACKUPS" default:"4"`
}

func main() {
	log.Println("Starte Backup-Prozess...")

	var cfg BackupConfig
	err := envconfig.Process("", &cfg)
	if err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}

	// 1. Datenbank-Dump erstellen
	dumpData, err := createDump(cfg)
	if err != nil {
		log.Fatalf("Fehler beim Erstellen des DB-Dumps: %v", err)
	}

	// 2. S3-Client erstellen
	s3Cfg := storage.S3Config{
		Key:    cfg.BackupAccessKey,
		Secret: cfg.BackupSecretKey,
		URL:    cfg.BackupEndpoint,
		Region: cfg.BackupRegion,
		Bucket: cfg.BackupBucket,
	}
	s3Client, err := storage.NewS3Client(s3Cfg)
	if err != nil {
		log.Fatalf("Fehler beim Erstellen des S3-Clients: %v", err)
	}

	// 3. Backup nach S3 hochladen
	fileName := fmt.Sprintf("backup-%s.archive.gz", time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	if _, err := storage.UploadFile(context.Background(), s3Client, s3Cfg, fileName, dumpData); err != nil {
		log.Fatalf("Fehler beim Hochladen nach S3: %v", err)
	}
	log.Printf("Backup erfolgreich nach s3://%s/%s hochgeladen", cfg.BackupBucket, fileName)

	// 4. Alte Backups rotieren
	if err := rotateBackups(s3Client, cfg); err != nil {
		log.Fatalf("Fehler bei der Rotation alter Backups: %v", err)
	}

	log.Println("Backup-Prozess erfolgreich abgeschlossen.")
}

func createDump(cfg BackupConfig) ([]byte, error) {
	cmd := exec.Command("mongodump",
		"--uri", cfg.MongoURI,
		"--db", cfg.MongoDB,
		"--archive",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err := io.Copy(gzipWriter, stdout); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func rotateBackups(client *s3.Client, cfg BackupConfig) error {
	output, err := client.ListObjectsV2(context.TODO(), &s3.ListObjectsV2Input{
		Bucket: aws.String(cfg.BackupBucket),
	})
	if err != nil {
		return err
	}

	if len(output.Contents) <= cfg.KeepBackups {
		log.Printf("Weniger als %d Backups vorhanden, keine Rotation nötig.", cfg.KeepBackups)
		return nil
	}

	sort.Slice(output.Contents, func(i, j int) bool {
		return output.Contents[i].LastModified.After(*output.Contents[j].LastModified)
	})

	for _, obj := range output.Contents[cfg.KeepBackups:] {
		log.Printf("Lösche altes Backup: %s", *obj.Key)
		_, err := client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
			Bucket: aws.String(cfg.BackupBucket),
			Key:    obj.Key,
		})
		if err != nil {
			log.Printf("Fehler beim Löschen von %s: %v", *obj.Key, err)
		}
	}

	return nil
}
