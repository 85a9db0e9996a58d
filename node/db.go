package main

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/virtualzone/chargebot-easee/easee"
	"github.com/virtualzone/chargebot-easee/easee/sqlitestore"
	_ "modernc.org/sqlite"
)

var SQLITE_DATETIME_LAYOUT string = "2006-01-02 15:04:05"

type ChargerState struct {
	ChargerID  string       `json:"charger_id"`
	Name       string       `json:"name"`
	OpMode     easee.OpMode `json:"op_mode"`
	Online     bool         `json:"online"`
	TotalPower float64      `json:"total_power"`
	ReadingKWh float64      `json:"reading_kwh"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type MeterReadingRecord struct {
	ID         string    `json:"id"`
	ChargerID  string    `json:"charger_id"`
	Timestamp  time.Time `json:"ts"`
	ReadingKWh float64   `json:"reading_kwh"`
}

type ChargerEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
	Event     int       `json:"event"`
	Data      string    `json:"data"`
}

const (
	LogEventOpModeChange = 1
	LogEventPause        = 2
	LogEventResume       = 3
	LogEventPair         = 4
	LogEventUnpair       = 5
	LogEventPollEnergy   = 6
	LogEventPollFailed   = 7
)

type DB struct {
	Connection *sql.DB
	Time       easee.Time
}

var _DBInstance *DB
var _DBOnce sync.Once

func GetDB() *DB {
	_DBOnce.Do(func() {
		_DBInstance = &DB{
			Time: new(easee.RealTime),
		}
	})
	return _DBInstance
}

func (db *DB) Connect() {
	log.Println("Connecting to database...")
	con, err := sql.Open("sqlite", GetConfig().DBFile+"?_pragma=busy_timeout=10000&_pragma=journal_mode=WAL")
	if err != nil {
		log.Panicln(err)
	}
	if GetConfig().DBFile == ":memory:" {
		// every connection would open its own empty database
		con.SetMaxOpenConns(1)
	} else {
		con.SetMaxOpenConns(10000)
		con.SetMaxIdleConns(10000)
	}
	db.Connection = con
}

func (db *DB) GetConnection() *sql.DB {
	return db.Connection
}

func (db *DB) ResetDBStructure() {
	log.Println("Resetting database...")
	_, err := db.GetConnection().Exec(`
drop table if exists charger_states;
drop table if exists meter_readings;
drop table if exists logs;
`)
	if err != nil {
		log.Panicln(err)
	}
}

func (db *DB) InitDBStructure() {
	log.Println("Initializing database structure...")
	_, err := db.GetConnection().Exec(`
create table if not exists charger_states(charger_id text primary key, name text default '', op_mode int default -1, online int default 0, total_power real default 0, reading_kwh real default 0, updated_at text default '');
create table if not exists meter_readings(id text primary key, charger_id text not null, ts text not null, reading_kwh real);
create unique index if not exists meter_readings_charger_ts on meter_readings(charger_id, ts);
create table if not exists logs(id text primary key, charger_id text, ts text, event_id int, details text);
`)
	if err != nil {
		log.Panicln(err)
	}
}

// NewTokenStore persists the Easee tokens next to the node's own tables.
func (db *DB) NewTokenStore() *sqlitestore.Store {
	store, err := sqlitestore.New(db.GetConnection())
	if err != nil {
		log.Panicln(err)
	}
	store.Time = db.Time
	return store
}

func (db *DB) SetChargerState(e *ChargerState) {
	_, err := db.GetConnection().Exec("replace into charger_states values(?, ?, ?, ?, ?, ?, ?)",
		e.ChargerID, e.Name, int(e.OpMode), e.Online, e.TotalPower, e.ReadingKWh, db.formatSqliteDatetime(e.UpdatedAt))
	if err != nil {
		log.Panicln(err)
	}
}

func (db *DB) GetChargerState(chargerID string) *ChargerState {
	e := &ChargerState{}
	var opMode int
	var ts string
	err := db.GetConnection().QueryRow("select charger_id, name, op_mode, online, total_power, reading_kwh, updated_at "+
		"from charger_states where charger_id = ?",
		chargerID).
		Scan(&e.ChargerID, &e.Name, &opMode, &e.Online, &e.TotalPower, &e.ReadingKWh, &ts)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Println(err)
		}
		return nil
	}
	e.OpMode = easee.ParseOpMode(opMode)
	e.UpdatedAt, _ = time.Parse(SQLITE_DATETIME_LAYOUT, ts)
	return e
}

func (db *DB) GetChargerStates() []*ChargerState {
	result := []*ChargerState{}
	rows, err := db.GetConnection().Query("select charger_id, name, op_mode, online, total_power, reading_kwh, updated_at " +
		"from charger_states order by name")
	if err != nil {
		log.Println(err)
		return nil
	}
	defer rows.Close()
	for rows.Next() {
		e := &ChargerState{}
		var opMode int
		var ts string
		rows.Scan(&e.ChargerID, &e.Name, &opMode, &e.Online, &e.TotalPower, &e.ReadingKWh, &ts)
		e.OpMode = easee.ParseOpMode(opMode)
		e.UpdatedAt, _ = time.Parse(SQLITE_DATETIME_LAYOUT, ts)
		result = append(result, e)
	}
	return result
}

// RecordMeterReading returns false if a reading with the same timestamp has
// already been recorded for the charger.
func (db *DB) RecordMeterReading(chargerID string, reading easee.MeterReading) bool {
	res, err := db.GetConnection().Exec("insert or ignore into meter_readings (id, charger_id, ts, reading_kwh) values (?, ?, ?, ?)",
		uuid.NewString(), chargerID, db.formatSqliteDatetime(reading.Timestamp), reading.ReadingKWh)
	if err != nil {
		log.Panicln(err)
	}
	num, _ := res.RowsAffected()
	return num > 0
}

func (db *DB) GetLatestMeterReadings(chargerID string, num int) []*MeterReadingRecord {
	result := []*MeterReadingRecord{}
	rows, err := db.GetConnection().Query("select id, charger_id, ts, reading_kwh "+
		"from meter_readings where charger_id = ? order by ts desc limit ?",
		chargerID, num)
	if err != nil {
		log.Println(err)
		return nil
	}
	defer rows.Close()
	for rows.Next() {
		var ts string
		e := &MeterReadingRecord{}
		rows.Scan(&e.ID, &e.ChargerID, &ts, &e.ReadingKWh)
		e.Timestamp, _ = time.Parse(SQLITE_DATETIME_LAYOUT, ts)
		result = append(result, e)
	}
	return result
}

func (db *DB) LogChargerEvent(chargerID string, eventType int, text string) {
	log.Printf("charger event %d for charger id %s with data: %s\n", eventType, chargerID, text)
	_, err := db.GetConnection().Exec("insert into logs values(?, ?, ?, ?, ?)", uuid.NewString(), chargerID, db.formatSqliteDatetime(db.Time.UTCNow()), eventType, text)
	if err != nil {
		log.Panicln(err)
	}
}

func (db *DB) GetLatestChargerEvents(chargerID string, num int) []*ChargerEvent {
	result := []*ChargerEvent{}
	rows, err := db.GetConnection().Query("select id, ts, event_id, details "+
		"from logs where charger_id = ? order by ts desc, rowid desc limit ?",
		chargerID, num)
	if err != nil {
		log.Println(err)
		return nil
	}
	defer rows.Close()
	for rows.Next() {
		var ts string
		e := &ChargerEvent{}
		rows.Scan(&e.ID, &ts, &e.Event, &e.Data)
		e.Timestamp, _ = time.Parse(SQLITE_DATETIME_LAYOUT, ts)
		result = append(result, e)
	}
	return result
}

func (db *DB) formatSqliteDatetime(ts time.Time) string {
	return ts.UTC().Format(SQLITE_DATETIME_LAYOUT)
}
