package client

import (
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Get builds an operation issuing GET {base}{path} with args as query
// parameters
func Get(path string) Operation {
	return func(req *resty.Request, baseURL string, args map[string]interface{}) (*resty.Response, error) {
		for key, value := range args {
			req.SetQueryParam(key, fmt.Sprintf("%v", value))
		}
		return req.Get(baseURL + path)
	}
}

// Post builds an operation issuing POST {base}{path} with args as the
// JSON body
func Post(path string) Operation {
	return func(req *resty.Request, baseURL string, args map[string]interface{}) (*resty.Response, error) {
		if args != nil {
			req.SetBody(args)
		}
		return req.Post(baseURL + path)
	}
}

// Put builds an operation issuing PUT {base}{path} with args as the
// JSON body
func Put(path string) Operation {
	return func(req *resty.Request, baseURL string, args map[string]interface{}) (*resty.Response, error) {
		if args != nil {
			req.SetBody(args)
		}
		return req.Put(baseURL + path)
	}
}

// Delete builds an operation issuing DELETE {base}{path}
func Delete(path string) Operation {
	return func(req *resty.Request, baseURL string, args map[string]interface{}) (*resty.Response, error) {
		return req.Delete(baseURL + path)
	}
}
