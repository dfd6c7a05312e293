package configs

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type ENV struct {
	DBDriver   string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBPath     string
	Port       string

	PrivatePasswordHash string
	AppAuthKey          string
	AppEncKey           string
	CSRFKey             string

	LoblawsAPIBase    string
	LoblawsAPIKey     string
	LoblawsStore      string
	LoblawsBanner     string
	LoblawsLang       string
	LoblawsPickupType string
	NotifyEndpoint    string

	LinkCheckIntervalMinutes int
	WatchRefreshCron         string
	RefreshConcurrency       int
	LinkSeedPath             string
}

func LoadEnv() ENV {

	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: No .env file found ")
	}

	return ENV{
		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		DBPath:     getEnv("DB_PATH", "fengdock.db"),
		Port:       getEnv("APP_PORT", ":8000"),

		PrivatePasswordHash: os.Getenv("PRIVATE_PAGE_PASSWORD_HASH"),
		AppAuthKey:          os.Getenv("APP_AUTH_KEY"),
		AppEncKey:           os.Getenv("APP_ENC_KEY"),
		CSRFKey:             os.Getenv("CSRF_KEY"),

		LoblawsAPIBase:    getEnv("LOBLAWS_API_BASE", "https://api.pcexpress.ca/pcx-bff/api"),
		LoblawsAPIKey:     os.Getenv("LOBLAWS_API_KEY"),
		LoblawsStore:      getEnv("LOBLAWS_DEFAULT_STORE", "1032"),
		LoblawsBanner:     getEnv("LOBLAWS_BANNER", "loblaw"),
		LoblawsLang:       getEnv("LOBLAWS_LANG", "en"),
		LoblawsPickupType: getEnv("LOBLAWS_PICKUP_TYPE", "STORE"),
		NotifyEndpoint:    os.Getenv("LOBLAWS_NOTIFY_ENDPOINT"),

		LinkCheckIntervalMinutes: getEnvInt("LINK_CHECK_INTERVAL_MINUTES", 30),
		WatchRefreshCron:         getEnv("WATCH_REFRESH_CRON", "0 */6 * * *"),
		RefreshConcurrency:       getEnvInt("REFRESH_CONCURRENCY", 4),
		LinkSeedPath:             getEnv("LINK_SEED_PATH", "config/links.yaml"),
	}

}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

var LoadENV = LoadEnv()
