package main

import (
	"context"
	"io"
	"log"

	"github.com/virtualzone/chargebot-easee/easee"
)

type EaseeAPI interface {
	Chargers(ctx context.Context) ([]easee.Charger, error)
	State(ctx context.Context, chargerID string) (*easee.State, error)
	Configuration(ctx context.Context, chargerID string) (*easee.Configuration, error)
	Site(ctx context.Context, chargerID string) (*easee.Site, error)
	Pair(ctx context.Context, chargerID, pinCode string) error
	Unpair(ctx context.Context, chargerID, pinCode string) error
	PauseCharging(ctx context.Context, chargerID string) error
	ResumeCharging(ctx context.Context, chargerID string) error
	PollLifetimeEnergy(ctx context.Context, chargerID string) error
}

var EaseeAPIInstance EaseeAPI

func GetEaseeAPI() EaseeAPI {
	return EaseeAPIInstance
}

func NewEaseeClient() *easee.Client {
	logger := log.New(io.Discard, "", 0)
	if GetConfig().DebugLog {
		logger = log.Default()
	}
	client, err := easee.NewClient(GetConfig().EaseeUserName, GetConfig().EaseePassword,
		easee.WithBaseURL(GetConfig().EaseeBaseURL),
		easee.WithTokenStore(GetDB().NewTokenStore()),
		easee.WithEncryptor(newTokenEncryptor()),
		easee.WithLogger(logger),
		easee.WithTime(GetDB().Time),
	)
	if err != nil {
		log.Panicln(err)
	}
	return client
}

func newTokenEncryptor() easee.Encryptor {
	if GetConfig().CryptKey == "" {
		log.Println("CRYPT_KEY not set, Easee tokens are stored unencrypted")
		return easee.NullEncryptor{}
	}
	encryptor, err := easee.NewAESEncryptor([]byte(GetConfig().CryptKey))
	if err != nil {
		log.Panicln("CRYPT_KEY must be 16, 24 or 32 bytes long")
	}
	return encryptor
}
