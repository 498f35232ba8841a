package model

type UsageLedger struct {
	UserID   string `json:"user_id"`
	Activity string `json:"activity"`
	Count    int64  `json:"count"`
	Mtime    int64  `json:"mtime"`
}
