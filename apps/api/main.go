package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trezcool/darasa/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lecture"
	"github.com/trezcool/darasa/services/analysis"
	"github.com/trezcool/darasa/services/email"
	"github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/services/transcript"
	"github.com/trezcool/darasa/services/transcription"
	"github.com/trezcool/darasa/storage/database"
	"github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, core.Conf.AppName+" API : ", log.LstdFlags|log.Lshortfile)

	var appLogger core.Logger
	if core.Conf.Debug {
		appLogger = logsvc.NewConsoleLogger(std)
	} else {
		appLogger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	// set up DB
	var repo lecture.Repository
	if core.Conf.Debug {
		db, err := inmemdb.Open()
		errAndDie(std, err)
		repo = inmemdb.NewLectureRepository(db)
	} else {
		errAndDie(std, database.CreateIfNotExist(core.Conf))
		db, err := database.Open(core.Conf)
		errAndDie(std, err)
		defer db.Close()
		errAndDie(std, database.Migrate(db))
		repo = sqlxrepos.NewLectureRepository(db)
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(appLogger)
	}
	analyzer := lecture.NewAnalyzer(
		repo,
		transcriptionsvc.NewAssemblyAIService(core.Conf, appLogger),
		analysissvc.NewGeminiService(core.Conf, appLogger),
		transcriptsvc.NewYouTubeService(appLogger),
		mailSvc,
		appLogger,
		core.Conf.AudioDir,
	)
	lecSvc := lecture.NewService(repo, appLogger, analyzer)

	// start the schedule monitor
	monitor := lecture.NewMonitor(repo, appLogger, core.Conf.Scheduler.TickInterval)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Start(ctx)

	// start API server; shutdown on SIGINT/SIGTERM or a caught shutdown error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Addr:       core.Conf.Server.Addr,
			Logger:     appLogger,
			Shutdown:   shutdown,
			LectureSvc: lecSvc,
		},
	)
	go app.Start()

	<-shutdown
	std.Println("shutting down...")
	sdCtx, sdCancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer sdCancel()
	errAndDie(std, app.Stop(sdCtx))
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
