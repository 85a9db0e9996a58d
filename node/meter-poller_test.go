package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/virtualzone/chargebot-easee/easee"
)

type telegramFake struct {
	Server   *httptest.Server
	mutex    sync.Mutex
	Messages []TelegramMessage
}

func newTelegramFake(t *testing.T) *telegramFake {
	f := &telegramFake{}
	router := mux.NewRouter()
	router.HandleFunc("/bot{token}/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var m TelegramMessage
		UnmarshalBody(r.Body, &m)
		f.mutex.Lock()
		f.Messages = append(f.Messages, m)
		f.mutex.Unlock()
		SendJSON(w, TelegramResponse{OK: true})
	}).Methods("POST")
	f.Server = httptest.NewServer(router)
	oldEndpoint := TelegramAPIEndpoint
	TelegramAPIEndpoint = f.Server.URL
	GetConfig().TelegramToken = "123:abc"
	GetConfig().TelegramChatID = "42"
	t.Cleanup(func() {
		TelegramAPIEndpoint = oldEndpoint
		f.Server.Close()
	})
	return f
}

func (f *telegramFake) Texts() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	res := []string{}
	for _, m := range f.Messages {
		res = append(res, m.Text)
	}
	return res
}

func newTestMeterPoller() *MeterPoller {
	p := NewMeterPoller()
	p.Time = GlobalMockTime
	return p
}

func TestMeterPoller_recordsReadingAndState(t *testing.T) {
	t.Cleanup(ResetTestDB)
	GetEaseeAPIMock().On("Chargers").Return([]easee.Charger{{ID: "EH123", Name: "Garage"}}, nil)
	GetEaseeAPIMock().On("State", "EH123").Return(newTestState(2, 100.5, "2024-03-01T10:00:00Z"), nil)

	newTestMeterPoller().PollOnce(context.Background())

	state := GetDB().GetChargerState("EH123")
	assert.NotNil(t, state)
	assert.Equal(t, "Garage", state.Name)
	assert.Equal(t, easee.OpModeAwaitingStart, state.OpMode)
	assert.Equal(t, true, state.Online)
	assert.Equal(t, 7.4, state.TotalPower)
	assert.Equal(t, 100.5, state.ReadingKWh)

	readings := GetDB().GetLatestMeterReadings("EH123", 10)
	assert.Len(t, readings, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), readings[0].Timestamp)

	events := GetDB().GetLatestChargerEvents("EH123", 10)
	assert.Len(t, events, 1)
	assert.Equal(t, LogEventOpModeChange, events[0].Event)
	assert.Equal(t, "op mode changed from none to awaiting_start", events[0].Data)
}

func TestMeterPoller_sameReadingRecordedOnce(t *testing.T) {
	t.Cleanup(ResetTestDB)
	GetEaseeAPIMock().On("Chargers").Return([]easee.Charger{{ID: "EH123"}}, nil)
	GetEaseeAPIMock().On("State", "EH123").Return(newTestState(1, 100.5, "2024-03-01T10:00:00Z"), nil)

	p := newTestMeterPoller()
	p.PollOnce(context.Background())
	p.PollOnce(context.Background())

	assert.Len(t, GetDB().GetLatestMeterReadings("EH123", 10), 1)
	assert.Len(t, GetDB().GetLatestChargerEvents("EH123", 10), 1)
	GetEaseeAPIMock().AssertNumberOfCalls(t, "State", 2)
}

func TestMeterPoller_notifiesOnCharging(t *testing.T) {
	t.Cleanup(ResetTestDB)
	telegram := newTelegramFake(t)
	GetEaseeAPIMock().On("Chargers").Return([]easee.Charger{{ID: "EH123", Name: "Garage"}}, nil)
	GetEaseeAPIMock().On("State", "EH123").Return(newTestState(2, 100.5, "2024-03-01T10:00:00Z"), nil).Once()
	GetEaseeAPIMock().On("State", "EH123").Return(newTestState(3, 101.5, "2024-03-01T10:05:00Z"), nil).Once()

	p := newTestMeterPoller()
	p.PollOnce(context.Background())
	assert.Len(t, telegram.Texts(), 0)

	updates := GetStateHub().Subscribe("EH123")
	defer GetStateHub().Unsubscribe("EH123", updates)
	p.PollOnce(context.Background())

	assert.Equal(t, []string{"Charger Garage: charging"}, telegram.Texts())
	assert.Len(t, GetDB().GetLatestMeterReadings("EH123", 10), 2)
	select {
	case state := <-updates:
		assert.Equal(t, easee.OpModeCharging, state.OpMode)
		assert.Equal(t, 101.5, state.ReadingKWh)
	default:
		t.Fatal("expected state update")
	}
}

func TestMeterPoller_rateLimitSkipsRemainingChargers(t *testing.T) {
	t.Cleanup(ResetTestDB)
	GetEaseeAPIMock().On("Chargers").Return([]easee.Charger{{ID: "EH123"}, {ID: "EH456"}}, nil)
	GetEaseeAPIMock().On("State", "EH123").Return(nil, fmt.Errorf("%w", easee.ErrRateLimitExceeded))

	newTestMeterPoller().PollOnce(context.Background())

	GetEaseeAPIMock().AssertNotCalled(t, "State", "EH456")
	assert.Nil(t, GetDB().GetChargerState("EH123"))
	assert.Len(t, GetDB().GetLatestChargerEvents("EH123", 10), 0)
}

func TestMeterPoller_forbiddenCharger(t *testing.T) {
	t.Cleanup(ResetTestDB)
	telegram := newTelegramFake(t)
	GetEaseeAPIMock().On("Chargers").Return([]easee.Charger{{ID: "EH123"}, {ID: "EH456"}}, nil)
	GetEaseeAPIMock().On("State", "EH123").Return(nil, fmt.Errorf("%w", easee.ErrForbidden))
	GetEaseeAPIMock().On("State", "EH456").Return(newTestState(1, 5, ""), nil)

	newTestMeterPoller().PollOnce(context.Background())

	events := GetDB().GetLatestChargerEvents("EH123", 10)
	assert.Len(t, events, 1)
	assert.Equal(t, LogEventPollFailed, events[0].Event)
	assert.Equal(t, []string{"Access to charger EH123 was denied"}, telegram.Texts())

	state := GetDB().GetChargerState("EH456")
	assert.NotNil(t, state)
	assert.Equal(t, easee.OpModeDisconnected, state.OpMode)
}

func TestMeterPoller_listChargersFails(t *testing.T) {
	t.Cleanup(ResetTestDB)
	GetEaseeAPIMock().On("Chargers").Return(nil, fmt.Errorf("%w", easee.ErrRequestFailed))

	newTestMeterPoller().PollOnce(context.Background())

	GetEaseeAPIMock().AssertNotCalled(t, "State", "EH123")
	assert.Len(t, GetDB().GetChargerStates(), 0)
}
