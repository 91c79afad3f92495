package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"sync"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type MySqlConfig struct {
	HostName string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"3306"`
	UserName string `yaml:"user" env-default:"vetgate"`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"vetgate"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"vetgate"`
}

type SmtpConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:""`
	Port     int    `yaml:"port" env-default:"587"`
	UserName string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	From     string `yaml:"from" env-default:""`
	BaseUrl  string `yaml:"base_url" env-default:"http://localhost:8080"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled" env-default:"false"`
	ApiKey  string `yaml:"api_key" env-default:""`
	ChatId  int64  `yaml:"chat_id" env-default:"0"`
}

// AdminConfig holds the provisioning-area credentials. The admin area is a
// single fixed account; the password can be changed at runtime through the
// reset flow but reverts to this value on restart.
type AdminConfig struct {
	UserName string `yaml:"user" env-default:"admin"`
	Password string `yaml:"password" env-default:""`
	Email    string `yaml:"email" env-default:""`
}

type CodesConfig struct {
	CheckInTtlHours   int `yaml:"checkin_ttl_hours" env-default:"8"`
	CheckInWidth      int `yaml:"checkin_width" env-default:"3"`
	SignupTtlHours    int `yaml:"signup_ttl_hours" env-default:"24"`
	SignupWidth       int `yaml:"signup_width" env-default:"8"`
	AdminResetTtlMin  int `yaml:"admin_reset_ttl_min" env-default:"60"`
	ClinicResetTtlHrs int `yaml:"clinic_reset_ttl_hours" env-default:"24"`
}

type Config struct {
	Listen   Listen         `yaml:"listen"`
	MySql    MySqlConfig    `yaml:"mysql"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Smtp     SmtpConfig     `yaml:"smtp"`
	Telegram TelegramConfig `yaml:"telegram"`
	Admin    AdminConfig    `yaml:"admin"`
	Codes    CodesConfig    `yaml:"codes"`
	Env      string         `yaml:"env" env-default:"local"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
