package main

import (
	"flag"
	"log/slog"
	"os"
	"time"
	"vetgate/bot"
	"vetgate/entity"
	"vetgate/impl/checkin"
	"vetgate/impl/core"
	"vetgate/impl/passreset"
	"vetgate/impl/signup"
	"vetgate/internal/config"
	"vetgate/internal/database"
	"vetgate/internal/http-server/api"
	"vetgate/internal/mailer"
	"vetgate/lib/logger"
	"vetgate/lib/sl"
	"vetgate/lib/token"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.Setup(conf.Env, *logPath)
	log.Info("starting vetgate", slog.String("config", *configPath), slog.String("env", conf.Env))

	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.ChatId, log)
		if err != nil {
			log.Error("telegram bot disabled", sl.Err(err))
			tgBot = nil
		} else {
			log = slog.New(logger.NewTelegramHandler(log.Handler(), tgBot, slog.LevelError))
		}
	}

	db, err := database.NewSQLClient(conf)
	if err != nil {
		log.Error("connect database", sl.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	mail := mailer.New(conf.Smtp, log)

	checkinManager := checkin.New(db,
		token.NewSource(token.CharsetUpper, conf.Codes.CheckInWidth),
		time.Duration(conf.Codes.CheckInTtlHours)*time.Hour, log)

	signupManager := signup.New(db,
		token.NewSource(token.CharsetBase36, conf.Codes.SignupWidth),
		time.Duration(conf.Codes.SignupTtlHours)*time.Hour, log)
	if mail != nil {
		signupManager.SetMailer(mail)
	}
	if tgBot != nil {
		signupManager.SetNotifier(tgBot)
	}

	adminAccount := passreset.NewStaticAccount(conf.Admin.UserName, conf.Admin.Email, conf.Admin.Password)
	adminReset := passreset.New(entity.RealmAdmin, passreset.NewMemoryStore(), adminAccount,
		time.Duration(conf.Codes.AdminResetTtlMin)*time.Minute, log)
	clinicReset := passreset.New(entity.RealmClinic, db, db,
		time.Duration(conf.Codes.ClinicResetTtlHrs)*time.Hour, log)
	if mail != nil {
		adminReset.SetMailer(mail, conf.Smtp.BaseUrl+"/admin/reset")
		clinicReset.SetMailer(mail, conf.Smtp.BaseUrl+"/reset")
	}

	handler := core.New(db, checkinManager, signupManager, adminAccount, adminReset, clinicReset, log)
	if mongoClient := database.NewMongoClient(conf); mongoClient != nil {
		handler.SetIntakeStore(mongoClient)
	}

	if err = api.New(conf, log, handler); err != nil {
		log.Error("api server stopped", sl.Err(err))
		os.Exit(1)
	}
}
