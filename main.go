package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var (
	appName        = "CMPPSMS"     // application name
	version        = "0.3.0"       // version
	build          = ""            // git build number
	detailedLog    = false         // verbose log output
	logDir         = ""            // per-level log files, empty keeps stderr only
	configFileName = "config.yaml" // configuration file name
)

var config *Config // loaded and parsed configuration

func main() {
	fmt.Fprintf(os.Stderr, "### %s %s", appName, version)
	if build != "" {
		fmt.Fprintf(os.Stderr, " [#%s]", build)
	}
	fmt.Fprintln(os.Stderr)

	flag.StringVar(&configFileName, "config", configFileName, "configuration `fileName`")
	flag.StringVar(&logDir, "logdir", logDir, "`directory` for per-level log files")
	flag.BoolVar(&detailedLog, "debug", detailedLog, "log output full messages")
	flag.Parse()

	logrus.SetFormatter(new(prefixed.TextFormatter))
	if detailedLog {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if logDir != "" {
		logrus.AddHook(lfshook.NewHook(lfshook.PathMap{
			logrus.InfoLevel:  logDir + "/info.log",
			logrus.WarnLevel:  logDir + "/warning.log",
			logrus.ErrorLevel: logDir + "/error.log",
			logrus.DebugLevel: logDir + "/debug.log",
		}, nil))
	}

	logger := logrus.StandardLogger()
	for { // load and restart loop
		logger.Infof("Loading %q...", configFileName)
		var err error
		config, err = LoadConfig(configFileName)
		if err != nil {
			logger.Fatalln("Error loading config:", err)
		}
		if err = config.Start(); err != nil {
			logger.Fatalln("Error starting services:", err)
		}
		// wait for a signal...
		sig := monitorSignals(os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
		config.Stop()
		if sig != syscall.SIGUSR1 {
			logger.Info("[THE END]")
			return
		}
		logger.Info("Reload signal...")
	}
}

// monitorSignals blocks until one of the given signals arrives and
// returns it.
func monitorSignals(signals ...os.Signal) os.Signal {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, signals...)
	return <-signalChan
}
