package mock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/rendau/kvclient/adapters/client/httpc"
	"github.com/rendau/kvclient/adapters/logger"
	"github.com/rendau/kvclient/errs"
)

const (
	ErrPageNotFound = errs.Err("page_not_found")
)

type St struct {
	lg logger.Lite

	requests  []*RequestSt
	responses map[string][]ResponseSt
	mu        sync.Mutex
}

type RequestSt struct {
	Opts httpc.OptionsSt
	Raw  []byte
	Form url.Values
}

// ResponseSt is a scripted reply. Err, when set, is returned instead of Raw
// (use errs.NotAuthorized to emulate a 401).
type ResponseSt struct {
	Obj interface{}
	Raw []byte
	Err error
}

func New(lg logger.Lite) *St {
	return &St{
		lg: lg,

		requests:  []*RequestSt{},
		responses: map[string][]ResponseSt{},
	}
}

// SetResponse replaces the queue of replies for path. Replies are consumed in
// order; the last one is repeated once the queue is drained.
func (c *St) SetResponse(path string, responses ...ResponseSt) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range responses {
		if len(responses[i].Raw) == 0 && responses[i].Obj != nil {
			var err error

			responses[i].Raw, err = json.Marshal(responses[i].Obj)
			if err != nil {
				c.lg.Errorw("Fail to marshal json", err)
			}
		}
	}

	c.responses[path] = responses
}

func (c *St) GetOptions() httpc.OptionsSt {
	return httpc.OptionsSt{}
}

func (c *St) Send(_ context.Context, reqBody []byte, opts httpc.OptionsSt) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	request := &RequestSt{
		Opts: opts,
		Raw:  reqBody,
	}
	if form, err := url.ParseQuery(string(reqBody)); err == nil {
		request.Form = form
	}

	c.requests = append(c.requests, request)

	queue := c.responses[opts.Path]
	if len(queue) == 0 {
		c.lg.Infow("Httpc-mock, path not found", "path", opts.Path)
		return nil, ErrPageNotFound
	}

	response := queue[0]
	if len(queue) > 1 {
		c.responses[opts.Path] = queue[1:]
	}

	if response.Err != nil {
		return nil, response.Err
	}

	return response.Raw, nil
}

func (c *St) SendForm(ctx context.Context, form url.Values, opts httpc.OptionsSt) ([]byte, error) {
	if opts.Headers == nil {
		opts.Headers = http.Header{}
	}

	opts.Headers["Content-Type"] = []string{httpc.ContentTypeForm}

	return c.Send(ctx, []byte(form.Encode()), opts)
}

func (c *St) SendFormRecvJson(ctx context.Context, form url.Values, repObj any, opts httpc.OptionsSt) ([]byte, error) {
	repBody, err := c.SendForm(ctx, form, opts)
	if err != nil {
		return nil, err
	}

	if len(repBody) > 0 && repObj != nil {
		err = json.Unmarshal(repBody, repObj)
		if err != nil {
			return nil, errs.ErrWithDesc{Err: errs.BadJson, Desc: err.Error()}
		}
	}

	return repBody, nil
}

func (c *St) GetRequests() []*RequestSt {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]*RequestSt, len(c.requests))
	copy(result, c.requests)

	return result
}

// GetPathRequests returns requests sent to path, in order.
func (c *St) GetPathRequests(path string) []*RequestSt {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]*RequestSt, 0)

	for _, req := range c.requests {
		if req.Opts.Path == path {
			result = append(result, req)
		}
	}

	return result
}

func (c *St) Clean() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = []*RequestSt{}
	c.responses = map[string][]ResponseSt{}
}
