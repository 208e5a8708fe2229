package kvc

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

type OptionsSt struct {
	Host     string
	Port     int
	UseHttps bool
	Password string
	Group    string

	// Client defaults to http.DefaultClient.
	Client *http.Client
	// Timeout bounds a single http exchange; zero means no limit.
	Timeout  time.Duration
	LogFlags int
}

func (o *OptionsSt) mergeWithDefaults() {
	if o.Host == "" {
		o.Host = defaultOptions.Host
	}
	if o.Port == 0 {
		o.Port = defaultOptions.Port
	}
	if o.Group == "" {
		o.Group = defaultOptions.Group
	}
}

func (o OptionsSt) ServiceUrl() string {
	scheme := "http://"
	if o.UseHttps {
		scheme = "https://"
	}

	return scheme + o.Host + ":" + strconv.Itoa(o.Port)
}

type executeReqSt struct {
	Query string `form:"query"`
	Style string `form:"style"`
}

type executeRepSt struct {
	Alpha string         `json:"alpha"`
	Data  *executeDataSt `json:"data"`
}

type executeDataSt struct {
	Reply json.RawMessage `json:"reply"`
}
