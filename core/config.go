package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	Debug    bool
	TestMode bool
	AppName  string
	Build    string

	// Web is the client-facing app; StubAPI the development backend.
	Web struct {
		Addr string
	}
	StubAPI struct {
		Addr             string
		SecretKey        []byte
		TokenExpiration  time.Duration
		SimulatedLatency time.Duration
		RedisURL         string // empty: in-memory revocation store
	}

	// APIBaseURL is the backend REST surface the client talks to.
	APIBaseURL string

	// CredentialFile is where the session credential survives restarts.
	CredentialFile string

	// Wallet signing key (hex, no 0x prefix). Empty: wallet login unavailable.
	WalletKeyHex  string
	WalletChainID string

	DefaultFromEmail mail.Address
	SendgridAPIKey   string

	RollbarToken string
	ServerHost   string
}

var Conf *Config

func init() {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Kramik")
	v.SetDefault("webAddr", ":8080")
	v.SetDefault("stubAddr", ":5000")
	v.SetDefault("stubSecretKey", "h2(h!x)#*c2(#yg4h^$cegm2emy-poq5-wer)enb$+57=dz&uox")
	v.SetDefault("stubTokenExpiration", 7*24*time.Hour)
	v.SetDefault("stubSimulatedLatency", time.Duration(0))
	v.SetDefault("apiBaseURL", "http://localhost:5000/api")
	v.SetDefault("credentialFile", defaultCredentialFile())
	v.SetDefault("defaultFromEmail", "noreply@kramik.local")
	v.SetDefault("walletChainID", "1")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = &Config{
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		APIBaseURL:       v.GetString("apiBaseURL"),
		CredentialFile:   v.GetString("credentialFile"),
		WalletKeyHex:     v.GetString("walletKeyHex"),
		WalletChainID:    v.GetString("walletChainID"),
		DefaultFromEmail: mail.Address{Address: v.GetString("defaultFromEmail")},
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		ServerHost:       v.GetString("serverHost"),
	}
	Conf.Web.Addr = v.GetString("webAddr")
	Conf.StubAPI.Addr = v.GetString("stubAddr")
	Conf.StubAPI.SecretKey = []byte(v.GetString("stubSecretKey"))
	Conf.StubAPI.TokenExpiration = v.GetDuration("stubTokenExpiration")
	Conf.StubAPI.SimulatedLatency = v.GetDuration("stubSimulatedLatency")
	Conf.StubAPI.RedisURL = v.GetString("stubRedisURL")
}

func defaultCredentialFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".kramik", "kramik_token")
	}
	return filepath.Join(home, ".kramik", "kramik_token")
}
