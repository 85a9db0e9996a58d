package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/virtualzone/chargebot-easee/easee"
)

var TelegramAPIEndpoint = "https://api.telegram.org"

type TelegramMessage struct {
	ChatID              string `json:"chat_id"`
	Text                string `json:"text"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

type TelegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// ChargerNotification is a charger event pushed to the owner's chat.
type ChargerNotification struct {
	Charger string
	Text    string
	// Silent messages arrive without sound.
	Silent bool
}

func (n ChargerNotification) String() string {
	if n.Charger == "" {
		return n.Text
	}
	return "Charger " + n.Charger + ": " + n.Text
}

// OpModeNotification returns false for op modes the owner is not told about.
// A finished session is reported silently.
func OpModeNotification(charger string, mode easee.OpMode) (ChargerNotification, bool) {
	switch mode {
	case easee.OpModeCharging, easee.OpModeError:
		return ChargerNotification{Charger: charger, Text: mode.String()}, true
	case easee.OpModeCompleted:
		return ChargerNotification{Charger: charger, Text: mode.String(), Silent: true}, true
	}
	return ChargerNotification{}, false
}

func AccessDeniedNotification(chargerID string) ChargerNotification {
	if chargerID == "" {
		return ChargerNotification{Text: "Access to the Easee account was denied"}
	}
	return ChargerNotification{Text: fmt.Sprintf("Access to charger %s was denied", chargerID)}
}

// SendChargerNotification is a no-op unless a Telegram bot is configured.
func SendChargerNotification(n ChargerNotification) error {
	if GetConfig().TelegramToken == "" {
		return nil
	}
	return sendTelegramMessage(TelegramMessage{
		ChatID:              GetConfig().TelegramChatID,
		Text:                n.String(),
		DisableNotification: n.Silent,
	})
}

func sendTelegramMessage(msg TelegramMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	target := fmt.Sprintf("%s/bot%s/sendMessage", TelegramAPIEndpoint, GetConfig().TelegramToken)
	r, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	resp, err := RetryHTTPJSONRequest(r, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var m TelegramResponse
	if err := UnmarshalBody(resp.Body, &m); err != nil {
		return err
	}
	if !m.OK {
		return fmt.Errorf("telegram rejected message for chat %s: error code %d (%s)", msg.ChatID, m.ErrorCode, m.Description)
	}
	return nil
}
