package main

import (
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

func newClient() *resty.Client {
	return resty.New().SetBaseURL(apiFlag).SetHeader("Content-Type", "application/json")
}

func doGet(path string) ([]byte, error) {
	resp, err := newClient().R().Get(path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}

func doPostJSON(path string, payload interface{}) ([]byte, error) {
	resp, err := newClient().R().SetBody(payload).Post(path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}

func doPutJSON(path string, payload interface{}) ([]byte, error) {
	resp, err := newClient().R().SetBody(payload).Put(path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}

func requireUser() error {
	if userFlag == "" {
		return fmt.Errorf("--user required")
	}
	return nil
}
