package main

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/virtualzone/chargebot-easee/easee"
)

type EaseeAPIMock struct {
	mock.Mock
}

func (a *EaseeAPIMock) Chargers(ctx context.Context) ([]easee.Charger, error) {
	args := a.Called()
	resp, _ := args.Get(0).([]easee.Charger)
	return resp, args.Error(1)
}

func (a *EaseeAPIMock) State(ctx context.Context, chargerID string) (*easee.State, error) {
	args := a.Called(chargerID)
	resp, _ := args.Get(0).(*easee.State)
	return resp, args.Error(1)
}

func (a *EaseeAPIMock) Configuration(ctx context.Context, chargerID string) (*easee.Configuration, error) {
	args := a.Called(chargerID)
	resp, _ := args.Get(0).(*easee.Configuration)
	return resp, args.Error(1)
}

func (a *EaseeAPIMock) Site(ctx context.Context, chargerID string) (*easee.Site, error) {
	args := a.Called(chargerID)
	resp, _ := args.Get(0).(*easee.Site)
	return resp, args.Error(1)
}

func (a *EaseeAPIMock) Pair(ctx context.Context, chargerID, pinCode string) error {
	args := a.Called(chargerID, pinCode)
	return args.Error(0)
}

func (a *EaseeAPIMock) Unpair(ctx context.Context, chargerID, pinCode string) error {
	args := a.Called(chargerID, pinCode)
	return args.Error(0)
}

func (a *EaseeAPIMock) PauseCharging(ctx context.Context, chargerID string) error {
	args := a.Called(chargerID)
	return args.Error(0)
}

func (a *EaseeAPIMock) ResumeCharging(ctx context.Context, chargerID string) error {
	args := a.Called(chargerID)
	return args.Error(0)
}

func (a *EaseeAPIMock) PollLifetimeEnergy(ctx context.Context, chargerID string) error {
	args := a.Called(chargerID)
	return args.Error(0)
}

var _ EaseeAPI = (*easee.Client)(nil)

func newTestState(opMode int, lifetimeEnergy float64, latestPulse string) *easee.State {
	return easee.NewState(easee.StateData{
		ChargerOpMode:  &opMode,
		LifetimeEnergy: lifetimeEnergy,
		IsOnline:       true,
		TotalPower:     7.4,
		LatestPulse:    latestPulse,
	}, GlobalMockTime.UTCNow())
}
