package main

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var MqttPublishTimeout = 5 * time.Second

// MqttPublisher mirrors every polled charger state to a retained topic
// <prefix>/<charger id>/state.
type MqttPublisher struct {
	Topic  string
	client mqtt.Client
}

func NewMqttPublisher(client mqtt.Client, topic string) *MqttPublisher {
	return &MqttPublisher{
		Topic:  strings.TrimSuffix(topic, "/"),
		client: client,
	}
}

// ConnectMqttPublisher returns nil if no broker is configured.
func ConnectMqttPublisher() (*MqttPublisher, error) {
	if GetConfig().MqttBroker == "" {
		return nil, nil
	}

	log.Println("Initializing MQTT publisher...")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(GetConfig().MqttBroker)
	opts.SetClientID(GetConfig().MqttClientID)
	opts.SetUsername(GetConfig().MqttUsername)
	opts.SetPassword(GetConfig().MqttPassword)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(5 * time.Second)
	opts.SetAutoReconnect(true)
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %s\n", err.Error())
	}

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return NewMqttPublisher(c, GetConfig().MqttTopic), nil
}

func (p *MqttPublisher) StateTopic(chargerID string) string {
	return p.Topic + "/" + chargerID + "/state"
}

func (p *MqttPublisher) PublishState(state *ChargerState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.StateTopic(state.ChargerID), 0, true, payload)
	if !token.WaitTimeout(MqttPublishTimeout) {
		return errors.New("timeout publishing charger state to mqtt")
	}
	return token.Error()
}

func (p *MqttPublisher) Close() {
	p.client.Disconnect(250)
}
