package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"haruki-sprite-action/api"
	"haruki-sprite-action/config"
	"haruki-sprite-action/updater"
	"haruki-sprite-action/utils"
	"haruki-sprite-action/utils/cloud"
	"haruki-sprite-action/utils/exporter"
	harukiLogger "haruki-sprite-action/utils/logger"
	"haruki-sprite-action/utils/spritecodecs/act"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

func decodeOne(path string, cfg config.Config) error {
	textEncoding, err := utils.LookupTextEncoding(cfg.Decoder.TextEncoding)
	if err != nil {
		return err
	}
	format, err := utils.ParseExportFormat(cfg.Export.Format)
	if err != nil {
		return err
	}
	file, err := act.NewDecoder(textEncoding).DecodeFile(path)
	if err != nil {
		return err
	}
	data, err := exporter.Encode(file, format, cfg.Export.Pretty)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}

// defaultBodyLimit is the request body limit when decoder.max_file_size is 0.
const defaultBodyLimit = 30 * 1024 * 1024

// newApp builds the Fiber app with its middleware and routes. A nil
// accessLog writes the access log to stdout.
func newApp(cfg config.Config, accessLog io.Writer) *fiber.App {
	bodyLimit := defaultBodyLimit
	if cfg.Decoder.MaxFileSize > 0 {
		// one byte over so the decode handler reports the size itself
		bodyLimit = cfg.Decoder.MaxFileSize + 1
	}
	app := fiber.New(fiber.Config{
		BodyLimit:   bodyLimit,
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})

	if cfg.Backend.AccessLog != "" {
		logCfg := logger.Config{Format: cfg.Backend.AccessLog}
		if accessLog != nil {
			logCfg.Stream = accessLog
		}
		app.Use(logger.New(logCfg))
	}

	api.RegisterRoutes(app)
	return app
}

func main() {
	configPath := flag.String("config", config.DefaultConfigFile, "path to the config file")
	decodePath := flag.String("decode", "", "decode a single act file and print it to stdout")
	exportDir := flag.String("export-dir", "", "export every act file below this directory and exit")
	flag.Parse()

	if _, err := os.Stat(*configPath); err == nil {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		config.Cfg = cfg
	}

	if *decodePath != "" {
		if err := decodeOne(*decodePath, config.Cfg); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	var logFile *os.File
	var loggerWriter io.Writer = os.Stdout
	if config.Cfg.Backend.MainLogFile != "" {
		var err error
		logFile, err = os.OpenFile(config.Cfg.Backend.MainLogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			mainLogger := harukiLogger.NewLogger("Main", config.Cfg.Backend.LogLevel, os.Stdout)
			mainLogger.Errorf("failed to open main log file: %v", err)
			os.Exit(1)
		}
		loggerWriter = io.MultiWriter(os.Stdout, logFile)
		defer func(logFile *os.File) {
			_ = logFile.Close()
		}(logFile)
	}
	mainLogger := harukiLogger.NewLogger("Main", config.Cfg.Backend.LogLevel, loggerWriter)
	updater.SetLogLevel(config.Cfg.Backend.LogLevel)
	cloud.SetLogLevel(config.Cfg.Backend.LogLevel)
	api.SetLogLevel(config.Cfg.Backend.LogLevel)

	if *exportDir != "" {
		exported, err := updater.ExportDirectory(*exportDir, config.Cfg)
		mainLogger.Infof("Exported %d act files to %s", len(exported), config.Cfg.Export.OutputDir)
		if err != nil {
			mainLogger.Errorf("%v", err)
			os.Exit(1)
		}
		return
	}

	mainLogger.Infof("========================= Haruki Sprite Action %s =========================", config.Version)
	mainLogger.Infof("Powered By Haruki Dev Team")

	var accessLog io.Writer
	if config.Cfg.Backend.AccessLog != "" && config.Cfg.Backend.AccessLogPath != "" {
		accessLogFile, err := os.OpenFile(config.Cfg.Backend.AccessLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			mainLogger.Errorf("failed to open access log file: %v", err)
			os.Exit(1)
		}
		defer func(accessLogFile *os.File) {
			_ = accessLogFile.Close()
		}(accessLogFile)
		accessLog = accessLogFile
	}
	app := newApp(config.Cfg, accessLog)

	addr := fmt.Sprintf("%s:%d", config.Cfg.Backend.Host, config.Cfg.Backend.Port)
	listenCfg := fiber.ListenConfig{DisableStartupMessage: true}
	if config.Cfg.Backend.SSL {
		listenCfg.CertFile = config.Cfg.Backend.SSLCert
		listenCfg.CertKeyFile = config.Cfg.Backend.SSLKey
	}
	mainLogger.Infof("Listening on %s", addr)
	if err := app.Listen(addr, listenCfg); err != nil {
		mainLogger.Errorf("failed to start server: %v", err)
		os.Exit(1)
	}
}
