package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime"
	"time"
)

var (
	configPath       string
	forceUpdate      bool
	surbldActive     = true
	surbldActivation ActivationHandler
)

func main() {
	flag.Parse()

	if err := LoadConfig(configPath); err != nil {
		logger.Fatal(err)
	}

	logFiles, err := LoggerInit(Config.Log)
	if err != nil {
		logger.Fatal(err)
	}
	defer func() {
		for _, file := range logFiles {
			file.Close()
		}
	}()

	surbl, err := NewSURBL(&Config, NewResolver(&Config))
	if err != nil {
		logger.Fatal(err)
	}

	if forceUpdate {
		surbl.store.Purge()
	}

	if _, err := surbl.Load(); err != nil {
		logger.Fatal(err)
	}

	startDrbl(&Config)

	quitActivation := make(chan bool)
	go surbldActivation.loop(quitActivation)

	if Config.RefreshInterval > 0 {
		go func() {
			ticker := time.NewTicker(time.Duration(Config.RefreshInterval) * time.Second)
			defer ticker.Stop()

			for range ticker.C {
				reloaded, err := surbl.Load()
				if err != nil {
					logger.Errorf("tld refresh failed: %s", err)
					continue
				}
				if reloaded {
					logger.Notice("tld tables reloaded")
				}
			}
		}()
	}

	go func() {
		if err := StartAPIServer(surbl); err != nil {
			logger.Fatal(err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

forever:
	for {
		select {
		case <-sig:
			logger.Error("signal received, stopping")
			quitActivation <- true
			break forever
		}
	}
}

func init() {
	flag.StringVar(&configPath, "config", "surbld.toml", "location of the config file, if not found it will be generated (default surbld.toml)")
	flag.BoolVar(&forceUpdate, "update", false, "force a fresh download of the tld tables")

	runtime.GOMAXPROCS(runtime.NumCPU())
}
