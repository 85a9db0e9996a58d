package main

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	EaseeUserName  string `json:"-"`
	EaseePassword  string `json:"-"`
	EaseeBaseURL   string
	DBFile         string
	Port           int
	CryptKey       string `json:"-"`
	TokenSecret    string `json:"-"`
	PollInterval   time.Duration
	TelegramToken  string `json:"-"`
	TelegramChatID string
	MqttBroker     string
	MqttClientID   string
	MqttUsername   string
	MqttPassword   string `json:"-"`
	MqttTopic      string
	DebugLog       bool
	InitDBOnly     bool
}

var _configInstance *Config
var _configOnce sync.Once

func GetConfig() *Config {
	_configOnce.Do(func() {
		_configInstance = &Config{}
		_configInstance.ReadConfig()
	})
	return _configInstance
}

func (c *Config) ReadConfig() {
	// a missing .env file is fine, the environment takes precedence anyway
	godotenv.Load()

	c.EaseeUserName = c.getEnv("EASEE_USERNAME", "")
	c.EaseePassword = c.getEnv("EASEE_PASSWORD", "")
	c.EaseeBaseURL = c.getEnv("EASEE_BASE_URL", "https://api.easee.cloud/api")
	c.DBFile = c.getEnv("DB_FILE", "/tmp/chargebot_easee.db")
	port, err := strconv.Atoi(c.getEnv("PORT", "8080"))
	if err != nil {
		log.Panicln("PORT must be numeric")
	}
	c.Port = port
	c.CryptKey = c.getEnv("CRYPT_KEY", "")
	c.TokenSecret = c.getEnv("TOKEN_SECRET", "")
	pollInterval, err := strconv.Atoi(c.getEnv("POLL_INTERVAL_SECONDS", "60"))
	if err != nil || pollInterval <= 0 {
		log.Panicln("POLL_INTERVAL_SECONDS must be a positive number")
	}
	c.PollInterval = time.Duration(pollInterval) * time.Second
	c.TelegramToken = c.getEnv("TELEGRAM_TOKEN", "")
	c.TelegramChatID = c.getEnv("TELEGRAM_CHAT_ID", "")
	c.MqttBroker = c.getEnv("MQTT_BROKER", "")
	c.MqttClientID = c.getEnv("MQTT_CLIENT_ID", "chargebot-easee")
	c.MqttUsername = c.getEnv("MQTT_USERNAME", "")
	c.MqttPassword = c.getEnv("MQTT_PASSWORD", "")
	c.MqttTopic = c.getEnv("MQTT_TOPIC", "chargebot/easee")
	c.DebugLog = (c.getEnv("DEBUG_LOG", "0") == "1")
	c.InitDBOnly = (c.getEnv("INIT_DB_ONLY", "0") == "1")
}

func (c *Config) Print() {
	s, _ := json.MarshalIndent(c, "", "\t")
	log.Println("Using config:\n" + string(s))
}

func (c *Config) getEnv(key, defaultValue string) string {
	res := os.Getenv(key)
	if res == "" {
		return defaultValue
	}
	return res
}
