package httpc

import (
	"net/http"
	"time"
)

// OptionsSt is used both as client-level defaults and as per-request overrides,
// see GetMergedWith. A string value of "-" clears the inherited one.
type OptionsSt struct {
	Client        *http.Client
	BaseUrl       string
	BaseHeaders   http.Header
	BaseLogPrefix string

	Method      string
	Path        string
	Headers     http.Header
	BearerToken string
	LogFlags    int
	LogPrefix   string
	Timeout     time.Duration
}

func (o OptionsSt) GetMergedWith(v OptionsSt) OptionsSt {
	res := o

	if v.Client != nil {
		res.Client = v.Client
	}
	mergeStr(&res.BaseUrl, v.BaseUrl)
	if v.BaseHeaders != nil {
		res.BaseHeaders = v.BaseHeaders
	}
	mergeStr(&res.BaseLogPrefix, v.BaseLogPrefix)
	mergeStr(&res.Method, v.Method)
	mergeStr(&res.Path, v.Path)
	if v.Headers != nil {
		res.Headers = v.Headers
	}
	mergeStr(&res.BearerToken, v.BearerToken)
	if v.LogFlags != 0 {
		if v.LogFlags < 0 {
			res.LogFlags = 0
		} else {
			res.LogFlags = v.LogFlags
		}
	}
	mergeStr(&res.LogPrefix, v.LogPrefix)
	if v.Timeout != 0 {
		if v.Timeout < 0 {
			res.Timeout = 0
		} else {
			res.Timeout = v.Timeout
		}
	}

	return res
}

func mergeStr(dst *string, v string) {
	if v == "" {
		return
	}
	if v == "-" {
		*dst = ""
		return
	}
	*dst = v
}
