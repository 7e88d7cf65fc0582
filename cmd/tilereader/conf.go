package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

var conf *Conf

type Conf struct {
	App struct {
		Version string `toml:"version"`
		Title   string `toml:"title"`
	} `toml:"app"`
	Output struct {
		Directory      string `toml:"directory"`
		LogDir         string `toml:"logDir"`
		OutputTerminal bool   `toml:"outputTerminal"`
	} `toml:"output"`
	Task struct {
		MinZoom   int `toml:"minZoom"`
		MaxZoom   int `toml:"maxZoom"`
		MaxTiles  int `toml:"maxTiles"`
		TimeDelay int `toml:"timedelay"` // seconds to pause between zoom levels
	} `toml:"task"`
	BreakPoint struct {
		SaveFilePath string `toml:"saveFilePath"`
	} `toml:"breakPoint"`
	Source struct {
		Name     string `toml:"name"`
		Type     string `toml:"type"` // server, mbtiles or directory
		Location string `toml:"location"`
	} `toml:"source"`
	Lrs []struct {
		Min     int    `toml:"min"`
		Max     int    `toml:"max"`
		Geojson string `toml:"geojson"`
	} `toml:"lrs"`
}

// InitConf loads the TOML configuration.
func InitConf(cfgFile string) {
	if cfgFile == "" {
		cfgFile = "conf.toml"
	}
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("config file(%s) not exist", cfgFile)
		os.Exit(1)
	}
	viper.SetConfigType("toml")
	viper.SetConfigFile(cfgFile)
	viper.AutomaticEnv() // read in environment variables that match
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("read config file(%s) error, details: %s", viper.ConfigFileUsed(), err)
	}
	viper.SetDefault("app.version", "v 0.1.0")
	viper.SetDefault("app.title", "Tile Reader")
	viper.SetDefault("output.directory", "output")
	viper.SetDefault("task.maxZoom", 14)
	viper.SetDefault("task.maxTiles", 0)
	viper.SetDefault("task.timedelay", 0)
	viper.SetDefault("breakPoint.saveFilePath", "breakpoints")
	viper.SetDefault("source.type", "server")

	if err := viper.Unmarshal(&conf); err != nil {
		panic("unable to parse the config file")
	}
}
