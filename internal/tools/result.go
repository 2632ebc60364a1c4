package tools

import (
	"encoding/json"

	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is what every tool returns: a flat mapping that always carries
// "status" and, on failure, "message" and "code".
type Result map[string]any

// Success flattens payload's JSON fields into a result. A payload that does
// not encode to an object is placed under "data".
func Success(payload any) Result {
	r := Result{}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Failure(errinfo.External(err, "encode result"))
		}
		if err := json.Unmarshal(b, &r); err != nil {
			r = Result{"data": json.RawMessage(b)}
		}
		if r == nil {
			r = Result{}
		}
	}
	r["status"] = StatusSuccess
	return r
}

// Failure converts err into an error result keeping its classification.
func Failure(err error) Result {
	return Result{
		"status":  StatusError,
		"message": err.Error(),
		"code":    string(errinfo.CodeOf(err)),
	}
}

func (r Result) Status() string {
	s, _ := r["status"].(string)
	return s
}

func (r Result) OK() bool { return r.Status() == StatusSuccess }

// Message returns the failure message, or "" for successes.
func (r Result) Message() string {
	s, _ := r["message"].(string)
	return s
}

// Code returns the error classification of a failure.
func (r Result) Code() errinfo.Code {
	s, _ := r["code"].(string)
	return errinfo.Code(s)
}

// String renders r as indented JSON.
func (r Result) String() string {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return `{"status":"error","message":"unencodable result"}`
	}
	return string(b)
}
