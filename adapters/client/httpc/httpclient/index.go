package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rendau/kvclient/adapters/client/httpc"
	"github.com/rendau/kvclient/adapters/logger"
	"github.com/rendau/kvclient/errs"
)

type St struct {
	lg   logger.Lite
	opts httpc.OptionsSt
}

func New(lg logger.Lite, opts httpc.OptionsSt) *St {
	if opts.BaseUrl != "" {
		opts.BaseUrl = strings.TrimRight(opts.BaseUrl, "/") + "/"
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	return &St{
		lg:   lg,
		opts: opts,
	}
}

func (c *St) GetOptions() httpc.OptionsSt {
	return c.opts
}

func (c *St) Send(ctx context.Context, reqBody []byte, opts httpc.OptionsSt) ([]byte, error) {
	var err error

	opts = c.opts.GetMergedWith(opts)

	uri := opts.BaseUrl + opts.Path

	logError := opts.LogFlags&httpc.NoLogError <= 0
	logPrefix := opts.BaseLogPrefix + opts.LogPrefix

	if opts.LogFlags&httpc.LogRequest > 0 {
		c.lg.Infow(logPrefix+"request: /"+opts.Path,
			"uri", uri,
			"body", string(reqBody),
		)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, uri, bytes.NewReader(reqBody))
	if err != nil {
		if logError {
			c.lg.Errorw(logPrefix+"Fail to create http-request", err)
		}
		return nil, err
	}

	// Headers
	for k, v := range opts.BaseHeaders {
		req.Header[k] = v
	}
	for k, v := range opts.Headers {
		req.Header[k] = v
	}

	// Bearer auth
	if opts.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+opts.BearerToken)
	}

	// Do request
	rep, err := opts.Client.Do(req)
	if err != nil {
		if logError {
			c.lg.Errorw(
				logPrefix+"Fail to send http-request", err,
				"uri", uri,
			)
		}
		return nil, errs.ErrWithDesc{Err: errs.ServiceNA, Desc: err.Error()}
	}
	defer rep.Body.Close()

	// read response body
	repBody, err := io.ReadAll(rep.Body)
	if err != nil {
		if logError {
			c.lg.Errorw(
				logPrefix+"Fail to read body", err,
				"uri", uri,
			)
		}
		return nil, errs.ErrWithDesc{Err: errs.ServiceNA, Desc: err.Error()}
	}

	if rep.StatusCode < 200 || rep.StatusCode > 299 {
		if rep.StatusCode == http.StatusUnauthorized {
			if logError && opts.LogFlags&httpc.NoLogNotAuthorized <= 0 {
				c.lg.Errorw(
					logPrefix+"Not authorized", nil,
					"status_code", rep.StatusCode,
					"rep_body", string(repBody),
					"uri", uri,
				)
			}
			return nil, errs.NotAuthorized
		}
		if logError && opts.LogFlags&httpc.NoLogBadStatus <= 0 {
			c.lg.Errorw(
				logPrefix+"Bad status code", nil,
				"status_code", rep.StatusCode,
				"rep_body", string(repBody),
				"uri", uri,
			)
		}
		return nil, errs.ErrWithDesc{Err: errs.BadStatusCode, Desc: strconv.Itoa(rep.StatusCode)}
	}

	if opts.LogFlags&httpc.LogResponse > 0 {
		c.lg.Infow(logPrefix+"response: /"+opts.Path,
			"uri", uri,
			"body", string(repBody),
		)
	}

	return repBody, nil
}

func (c *St) SendForm(ctx context.Context, form url.Values, opts httpc.OptionsSt) ([]byte, error) {
	if opts.Headers == nil {
		opts.Headers = http.Header{}
	}

	opts.Headers["Content-Type"] = []string{httpc.ContentTypeForm}

	return c.Send(ctx, []byte(form.Encode()), opts)
}

func (c *St) SendFormRecvJson(ctx context.Context, form url.Values, repObj any, opts httpc.OptionsSt) ([]byte, error) {
	if opts.Headers == nil {
		opts.Headers = http.Header{}
	}

	opts.Headers["Accept"] = []string{httpc.ContentTypeJson}

	repBody, err := c.SendForm(ctx, form, opts)
	if err != nil {
		return nil, err
	}

	if len(repBody) > 0 && repObj != nil {
		err = json.Unmarshal(repBody, repObj)
		if err != nil {
			if opts.LogFlags&httpc.NoLogError <= 0 {
				c.lg.Errorw(
					opts.LogPrefix+"Fail to unmarshal body", err,
					"rep_body", string(repBody),
				)
			}
			return nil, errs.ErrWithDesc{Err: errs.BadJson, Desc: err.Error()}
		}
	}

	return repBody, nil
}
