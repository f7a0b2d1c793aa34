package client

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ""},
		{"timeout context", context.DeadlineExceeded, ErrorCategoryTimeout},
		{"canceled context", context.Canceled, ErrorCategoryTimeout},
		{"circuit open", fmt.Errorf("%w: open", ErrCircuitOpen), ErrorCategoryCircuitOpen},
		{"not found", ErrNotFound, ErrorCategoryNotFound},
		{"rate limited", ErrRateLimited, ErrorCategoryRateLimited},
		{"upstream failure", fmt.Errorf("exhausted retries: %w", ErrUpstreamFailure), ErrorCategoryUpstream5xx},
		{"empty body", ErrEmptyBody, ErrorCategoryEmptyBody},
		{"xml syntax", fmt.Errorf("decode feed: %w", &xml.SyntaxError{Msg: "unexpected EOF", Line: 3}), ErrorCategoryParsing},
		{"dial error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, ErrorCategoryNetwork},
		{"net timeout", fmt.Errorf("get feed: %w", timeoutErr{}), ErrorCategoryTimeout},
		{"timeout in message", errors.New("request timeout"), ErrorCategoryTimeout},
		{"network in message", errors.New("connection refused"), ErrorCategoryNetwork},
		{"parse in message", errors.New("parse feed: unexpected EOF"), ErrorCategoryParsing},
		{"unknown", errors.New("something else"), ErrorCategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategorizeError(tt.err)
			if got != tt.want {
				t.Errorf("CategorizeError() = %v, want %v", got, tt.want)
			}
		})
	}
}
