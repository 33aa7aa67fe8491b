package logging_test

import (
	"github.com/grovetools/hspdebug/logging"
	"github.com/sirupsen/logrus"
)

func ExampleNewLogger() {
	log := logging.NewLogger("session")

	log.Debug("Waiting for configurationDone")
	log.Info("Launching debuggee")

	log.WithFields(logrus.Fields{
		"program": "main.hsp",
		"runtime": "hsp3.exe",
	}).Info("Build finished")
}

func ExampleNewLogger_configuration() {
	// Configuration via hspdebug.yml:
	//
	// logging:
	//   level: debug
	//   report_caller: true
	//   file:
	//     path: ~/hspdebug.log
	//   format:
	//     preset: json
	//
	// Or via environment variables:
	// HSPDEBUG_LOG_LEVEL=debug
	// HSPDEBUG_LOG_CALLER=true

	log := logging.NewLogger("adapter")
	log.Info("This will respect the configuration")
}
