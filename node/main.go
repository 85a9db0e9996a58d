package main

import (
	"log"
	"os"
)

func main() {
	log.Println("Starting chargebot.io Easee node...")
	GetConfig().ReadConfig()
	GetDB().Connect()
	GetDB().InitDBStructure()
	if GetConfig().InitDBOnly {
		return
	}
	if GetConfig().EaseeUserName == "" || GetConfig().EaseePassword == "" {
		log.Fatalln("EASEE_USERNAME and EASEE_PASSWORD must be set")
	}
	if GetConfig().TokenSecret == "" {
		log.Println("TOKEN_SECRET not set, the REST API will reject all requests")
	}
	GetConfig().Print()

	EaseeAPIInstance = NewEaseeClient()

	InitHTTPRouter()

	mqttPublisher, err := ConnectMqttPublisher()
	if err != nil {
		log.Fatalf("could not connect to MQTT broker: %s\n", err.Error())
	}

	poller := NewMeterPoller()
	poller.Mqtt = mqttPublisher
	poller.Poll()
	ServeHTTP()

	poller.Interrupt <- os.Interrupt
	if mqttPublisher != nil {
		mqttPublisher.Close()
	}
	GetDB().GetConnection().Close()
	os.Exit(0)
}
