package auths

import (
	"context"
	"net/http"

	"github.com/rendau/kvclient/adapters/client/httpc"
	"github.com/rendau/kvclient/adapters/logger"
)

const Path = "auth"

type St struct {
	lg    logger.WarnAndError
	httpc httpc.HttpC
}

func New(lg logger.WarnAndError, httpc httpc.HttpC) *St {
	return &St{
		lg:    lg,
		httpc: httpc,
	}
}

// GetToken posts the password to the auth endpoint. Transport failures and
// credential rejection look the same to the caller: both are logged and
// reported as no token.
func (p *St) GetToken(ctx context.Context, password string) (string, bool) {
	repObj := tokenRepSt{}

	_, err := p.httpc.SendFormRecvJson(ctx, httpc.Object2UrlValues(tokenReqSt{
		Password: password,
	}), &repObj, httpc.OptionsSt{
		Method:    http.MethodPost,
		Path:      Path,
		LogPrefix: "Auth: ",
		LogFlags:  httpc.NoLogError,
	})
	if err != nil {
		p.lg.Errorw("Fail to authenticate", err)
		return "", false
	}

	if repObj.Data == nil || *repObj.Data == "" {
		p.lg.Warnw("Auth reply has no token")
		return "", false
	}

	return *repObj.Data, true
}
