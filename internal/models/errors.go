package models

import "errors"

// Sentinel errors shared by stores and services; the API maps them to status codes.
var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
)
