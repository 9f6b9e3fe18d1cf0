package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// StatusError is returned when the server responds
// with a non 2xx status code.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
}

type Request struct {
	*http.Request
	client *BaseClient
}

type PathParam struct {
	K string
	V string
}

// NewRequest constructs a new http request with url
// equal to client's baseUrl + the provided endpoint.
// The path params are escaped before they replace their
// {K} placeholders in the endpoint.
// Returns error if invalid pathParams provided.
func (client *BaseClient) NewRequest(ctx context.Context, method string, endpoint string, pathParams ...PathParam) (*Request, error) {
	url, err := client.newUrl(endpoint, pathParams...)
	if err != nil {
		return nil, err
	}
	r, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req := &Request{Request: r, client: client}
	for k, v := range client.headers {
		req = req.AddHeader(k, v)
	}
	return req, nil
}

func (r *Request) AddHeader(k string, v string) *Request {
	r.Header.Add(k, v)
	return r
}

func (r *Request) AddQueryParam(k string, v string) *Request {
	q := r.URL.Query()
	q.Add(k, v)
	r.URL.RawQuery = q.Encode()
	return r
}

// Do sends a http request and returns the response
func (r *Request) Do() (*http.Response, error) {
	return r.client.http.Do(r.Request)
}

// DoAndRead sends a http request and reads the response's body.
// Returns StatusError if the response's status is not 2xx.
func (r *Request) DoAndRead() ([]byte, error) {
	resp, err := r.Do()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// NOTE: drain the body so the connection may be reused
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: r.Url(), StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

// DoAndUnmarshall sends a http request and unmarshalls
// the response's body to the provided interface.
func (r *Request) DoAndUnmarshall(i interface{}) error {
	body, err := r.DoAndRead()
	if err != nil {
		return err
	}
	return json.Unmarshal(body, i)
}

// Url returns the request's url as a string
func (request *Request) Url() string {
	return request.URL.String()
}

func (client *BaseClient) newUrl(endpoint string, pathParams ...PathParam) (string, error) {
	for _, p := range pathParams {
		endpoint = strings.ReplaceAll(
			endpoint,
			fmt.Sprintf("{%s}", p.K),
			url.PathEscape(p.V),
		)
	}
	if strings.Contains(endpoint, "{") {
		return "", fmt.Errorf(
			"Did not get all the required "+
				"path params for the endpoint '%s'",
			endpoint,
		)
	}
	return client.baseUrl + endpoint, nil
}
