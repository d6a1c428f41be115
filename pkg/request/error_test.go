package request

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsStatusFindsWrappedRequestErrors(t *testing.T) {
	base := &RequestError{Message: "Not modified", Status: 304}
	wrapped := fmt.Errorf("fetch issues: %w", base)

	if !IsStatus(wrapped, 304) {
		t.Fatalf("expected IsStatus to see through wrapping")
	}
	if IsStatus(wrapped, 500) {
		t.Fatalf("unexpected status match")
	}
	if IsStatus(errors.New("plain"), 304) {
		t.Fatalf("plain errors carry no status")
	}
	got, ok := AsRequestError(wrapped)
	if !ok || got != base {
		t.Fatalf("AsRequestError = %v, %v", got, ok)
	}
}

func TestMergeBodyKeepsEntryKeyOrder(t *testing.T) {
	e := &RequestError{Message: "raw"}
	err := e.mergeBody(`{"message":"Validation Failed","errors":[{"z":1, "a":{"b" : [1, 2]}}]}`)
	if err != nil {
		t.Fatalf("mergeBody: %v", err)
	}
	want := `Validation Failed: {"z":1,"a":{"b":[1,2]}}`
	if e.Message != want {
		t.Fatalf("message = %q, want %q", e.Message, want)
	}
}

func TestMergeBodyNormalizesEntryNumbersAndStrings(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"message":"X","errors":["café",1.50,1e2]}`, `X: "café", 1.5, 100`},
		{`{"message":"X","errors":[1e21,0.0000001,-0.0,1E400,123456789012345678]}`, `X: 1e+21, 1e-7, 0, null, 123456789012345680`},
		{`{"message":"X","errors":["a<b>&\u0001\"",true,null]}`, `X: "a<b>&\u0001\"", true, null`},
		{`{"message":"X","errors":[{"n":2.50,"list":[{},[]]}]}`, `X: {"n":2.5,"list":[{},[]]}`},
	}
	for _, tc := range cases {
		e := &RequestError{}
		if err := e.mergeBody(tc.body); err != nil {
			t.Fatalf("mergeBody(%s): %v", tc.body, err)
		}
		if e.Message != tc.want {
			t.Fatalf("mergeBody(%s) message = %q, want %q", tc.body, e.Message, tc.want)
		}
	}
}

func TestMergeBodyReportsUnusableBodies(t *testing.T) {
	for _, body := range []string{"not json", `{"errors":{"a":1}}`} {
		e := &RequestError{Message: body}
		if err := e.mergeBody(body); err == nil {
			t.Fatalf("expected mergeBody(%q) to report a failure", body)
		}
		if e.Message != body {
			t.Fatalf("message changed to %q", e.Message)
		}
	}
}

func TestNilRequestErrorIsSafe(t *testing.T) {
	var e *RequestError
	if e.Error() != "<nil>" || e.Unwrap() != nil {
		t.Fatalf("nil receiver handling broken")
	}
}
