package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/virtualzone/chargebot-easee/easee"
)

// MeterPoller periodically reads the state of all chargers of the account,
// records meter readings and reports op mode transitions.
type MeterPoller struct {
	Interrupt chan os.Signal
	Interval  time.Duration
	Time      easee.Time
	// Mqtt is optional.
	Mqtt *MqttPublisher
}

func NewMeterPoller() *MeterPoller {
	return &MeterPoller{
		Interrupt: make(chan os.Signal, 1),
		Interval:  GetConfig().PollInterval,
		Time:      GetDB().Time,
	}
}

func (p *MeterPoller) Poll() {
	go func() {
		ticker := time.NewTicker(p.Interval)
		defer ticker.Stop()
		for {
			ctx, cancel := context.WithTimeout(context.Background(), p.Interval)
			p.PollOnce(ctx)
			cancel()
			select {
			case <-ticker.C:
			case <-p.Interrupt:
				return
			}
		}
	}()
}

func (p *MeterPoller) PollOnce(ctx context.Context) {
	chargers, err := GetEaseeAPI().Chargers(ctx)
	if err != nil {
		log.Printf("could not list chargers: %s\n", err.Error())
		p.notifyOnForbidden("", err)
		return
	}
	for _, charger := range chargers {
		err := p.pollCharger(ctx, charger)
		if errors.Is(err, easee.ErrRateLimitExceeded) {
			log.Println("rate limit exceeded, skipping remaining chargers until next poll")
			return
		}
		if err != nil {
			log.Printf("could not poll charger %s: %s\n", charger.ID, err.Error())
			GetDB().LogChargerEvent(charger.ID, LogEventPollFailed, err.Error())
			p.notifyOnForbidden(charger.ID, err)
		}
	}
}

func (p *MeterPoller) pollCharger(ctx context.Context, charger easee.Charger) error {
	state, err := GetEaseeAPI().State(ctx, charger.ID)
	if err != nil {
		return err
	}

	reading := state.MeterReading()
	if GetDB().RecordMeterReading(charger.ID, reading) {
		LogDebug(fmt.Sprintf("recorded meter reading %.3f kWh for charger %s", reading.ReadingKWh, charger.ID))
	}

	oldState := GetDB().GetChargerState(charger.ID)
	newState := &ChargerState{
		ChargerID:  charger.ID,
		Name:       charger.Name,
		OpMode:     state.OpMode(),
		Online:     state.Online(),
		TotalPower: state.TotalPower(),
		ReadingKWh: reading.ReadingKWh,
		UpdatedAt:  p.Time.UTCNow(),
	}
	GetDB().SetChargerState(newState)

	if oldState == nil || oldState.OpMode != newState.OpMode {
		from := "none"
		if oldState != nil {
			from = oldState.OpMode.String()
		}
		GetDB().LogChargerEvent(charger.ID, LogEventOpModeChange, fmt.Sprintf("op mode changed from %s to %s", from, newState.OpMode))
		if n, ok := OpModeNotification(p.displayName(charger), newState.OpMode); ok && oldState != nil {
			p.notify(n)
		}
	}

	GetStateHub().Publish(newState)
	if p.Mqtt != nil {
		if err := p.Mqtt.PublishState(newState); err != nil {
			log.Printf("could not publish state of charger %s to mqtt: %s\n", charger.ID, err.Error())
		}
	}
	return nil
}

func (p *MeterPoller) notifyOnForbidden(chargerID string, err error) {
	if errors.Is(err, easee.ErrForbidden) {
		p.notify(AccessDeniedNotification(chargerID))
	}
}

func (p *MeterPoller) notify(n ChargerNotification) {
	if err := SendChargerNotification(n); err != nil {
		log.Printf("could not send push notification: %s\n", err.Error())
	}
}

func (p *MeterPoller) displayName(charger easee.Charger) string {
	if charger.Name != "" {
		return charger.Name
	}
	return charger.ID
}
