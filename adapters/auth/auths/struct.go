package auths

type tokenReqSt struct {
	Password string `form:"password"`
}

type tokenRepSt struct {
	Data *string `json:"data"`
}
