package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	MongoURI string `envconfig:"MONGO_URI" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"8000"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Maximale Anzahl Paper pro List-Abfrage, sofern der Client kein Limit setzt.
	ListLimit int64 `envconfig:"LIST_LIMIT" default:"100"`
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
