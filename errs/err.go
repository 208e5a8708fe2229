package errs

// Err

type Err string

func (e Err) Error() string {
	return string(e)
}

// ErrWithDesc

type ErrWithDesc struct {
	Err  Err
	Desc string
}

func (e ErrWithDesc) Error() string {
	return e.Err.Error() + ", desc:" + e.Desc
}

func (e ErrWithDesc) Unwrap() error {
	return e.Err
}

// errors

const (
	NotConnected    = Err("not_connected")
	NotAuthorized   = Err("not_authorized")
	AuthFailed      = Err("auth_failed")
	BadStatusCode   = Err("bad_status_code")
	BadJson         = Err("bad_json")
	ServiceError    = Err("service_error")
	ServiceNA       = Err("service_not_available")
	UnknownTag      = Err("unknown_tag")
	BadPayload      = Err("bad_payload")
	UnsupportedType = Err("unsupported_type")
	BadSyntax       = Err("bad_syntax")
)
