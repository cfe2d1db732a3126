package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/tmmtools/tmm_browser/config"
	"github.com/tmmtools/tmm_browser/vfs"
	"github.com/tmmtools/tmm_browser/web"

	_ "github.com/tmmtools/tmm_browser/pack/tmm"
)

func main() {
	var settingsPath string
	var override config.Settings
	flag.StringVar(&settingsPath, "config", "", "Path to yaml settings file")
	flag.StringVar(&override.Addr, "i", "", "Address of server")
	flag.StringVar(&override.Dir, "dir", "", "Path to folder with .tmm files")
	flag.StringVar(&override.Web, "web", "", "Path to web resources")
	flag.StringVar(&override.Encoding, "encoding", "", "Code page of model, material and bone names")
	flag.Parse()

	settings := config.DefaultSettings()
	if settingsPath != "" {
		var err error
		if settings, err = config.LoadSettings(settingsPath); err != nil {
			logrus.Fatal(err)
		}
	}
	settings.Override(override)

	if settings.Dir == "" {
		flag.PrintDefaults()
		return
	}
	if err := settings.Apply(); err != nil {
		logrus.Fatal(err)
	}

	if err := web.StartServer(settings.Addr, vfs.NewDirectoryDriver(settings.Dir), settings.Web); err != nil {
		logrus.Fatal(err)
	}
}
