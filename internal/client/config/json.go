package config

import (
	"encoding/json"
	"os"

	"github.com/p1nk23/TgBot/internal/flagx"
	"github.com/p1nk23/TgBot/internal/timex"
)

// JsonConfig is the on-disk form of Config.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	AccessToken        string         `json:"access_token"`
	SessionKey         string         `json:"session_key"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
}

// parseJson overlays non-empty values from the JSON file named by -c or
// -config. An unreadable or malformed file panics.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.AccessToken != "" {
		cfg.AccessToken = jc.AccessToken
	}
	if jc.SessionKey != "" {
		cfg.SessionKey = jc.SessionKey
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
